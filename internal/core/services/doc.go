// Package services implements the driving ports: ingestion, index builds,
// vector search, query routing, retrieval, the float catalogue, settings
// and the scheduler.
//
// Services depend only on domain types and driven ports. Optional ports
// such as embedding and LLM services may be nil; each service degrades to
// its deterministic behaviour instead of failing.
package services
