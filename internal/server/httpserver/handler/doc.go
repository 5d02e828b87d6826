// Package handler implements the ledger HTTP API.
//
// Every JSON response uses the Response envelope. Amounts travel as decimal
// strings so no precision is lost; account ids are JSON numbers.
//
// Routes:
//
//	POST /accounts                    create an account
//	GET  /accounts/{id}               read a balance
//	POST /accounts/{id}/deposit       credit an account
//	POST /accounts/{id}/withdraw      debit an account
//	POST /transfers                   move funds between two accounts
//	GET  /health, GET /ready          liveness and readiness
//	GET  /admin/v1/locks              lock registry statistics
//	POST /admin/v1/locks/sweep        force a registry sweep
package handler
