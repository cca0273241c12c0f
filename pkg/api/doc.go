// Package api defines the bandpoints RPC surface: wire messages, procedure
// names, and constructors for Connect handlers and clients.
//
// Messages are plain Go structs encoded as JSON by Codec, so any Connect or
// plain HTTP client can call the service:
//
//	curl -X POST http://localhost:8080/bandpoints.v1.LeaderboardService/GetSectionStandings \
//	  -H 'Content-Type: application/json' -H 'Authorization: Bearer <token>' -d '{}'
package api
