// Package api implements the authenticated fetch pipeline for the iRacing
// Data API and resolves its two response indirections: link handoff and
// chunked datasets.
//
// # Fetch Pipeline
//
// [Client] scopes every request to one API base URL. Each fetch snapshots the
// auth headers from its [Authorizer], measures the transfer, and surfaces
// non-2xx responses as a typed [*Error]. A 401 triggers exactly one token
// refresh followed by one retry with freshly snapshotted headers; a second
// 401 is final.
//
// # Response Normalization
//
// The provider serves JSON under application/octet-stream in places. Bodies
// are normalized before they reach callers: misdeclared JSON is parsed and
// reported as application/json (parameters preserved), unknown types pass
// through as text, and absent declarations are sniffed.
//
// # Links And Chunks
//
// Many endpoints respond with {"link": ...}: a pre-signed, short-lived URL
// holding the actual payload. [Client.GetData] follows it exactly one level,
// without auth headers, optionally through a CORS file proxy.
//
// Large datasets arrive split into chunk files described by a chunk_info
// descriptor. [Client.GetChunk] fetches one by index; [Client.GetChunks]
// fetches a range concurrently and merges records in chunk order. Structural
// problems (no descriptor, index out of range) fail before any network
// traffic as [ErrNoChunkInfo] and [ErrChunkIndex].
package api
