// Package redisserver serves the ledger over the Redis protocol (RESP2).
//
// Any Redis client can drive the ledger with these commands:
//
//	LM.CREATE <id> <initial-balance>    +OK
//	LM.BALANCE <id>                     bulk balance
//	LM.DEPOSIT <id> <amount>            bulk balance after the deposit
//	LM.WITHDRAW <id> <amount>           bulk balance after the withdrawal
//	LM.TRANSFER <from> <to> <amount>    bulk transaction id
//
// PING, ECHO, QUIT, CLIENT and COMMAND are answered for client compatibility.
// Ledger failures are returned as "ERR <code> <message>" using the same
// codes as the HTTP API.
package redisserver
