// Package mcp implements the Model Context Protocol (MCP) server for phraseclip.
//
// The MCP server exposes the phrase index to AI assistants:
//   - search_phrases: substring search over normalized phrase text
//   - get_phrase: fetch one phrase record by id
//   - get_stats: corpus size and total clip duration
//   - load_manifest: import a clips-metadata.json file (when a loader is wired)
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout belongs to the protocol.
//
// # Basic Usage
//
//	phraseclip mcp -config phraseclip.yaml
//
// # Tool: search_phrases
//
//	Request:
//	{
//	  "name": "search_phrases",
//	  "arguments": {"query": "nasılsın"}
//	}
//
//	Response:
//	{
//	  "count": 1,
//	  "query": "nasılsın",
//	  "results": [
//	    {
//	      "id": 12,
//	      "text": "Merhaba, nasılsın?",
//	      "start_time": "00:00:01",
//	      "end_time": "00:00:03",
//	      "clip_filename": "clip_0001_00-00-01_merhaba-nasılsın.mp4",
//	      "clip_duration": 5
//	    }
//	  ]
//	}
//
// Queries shorter than two characters answer {"results": [], "message":
// "Query too short"} rather than failing.
//
// # Tool: get_phrase
//
//	Request:
//	{
//	  "name": "get_phrase",
//	  "arguments": {"id": 12}
//	}
//
// An unknown id fails with ErrorCodeNotFound.
//
// # Tool: get_stats
//
//	Response:
//	{
//	  "total_phrases": 1843,
//	  "total_duration": 11207.5
//	}
//
// # Error Codes
//
//	-32602  invalid parameters
//	-32603  internal error (storage failure)
//	-32001  phrase not found
//	-32002  a load is already running
//	-32004  empty query
package mcp
