/*
Package session implements session management and persistence orchestration.

Each session owns one trimming workflow. Hosts that serve many users (HTTP, MCP)
keep no controller in memory: every operation loads the stored WorkflowState,
rehydrates a controller, runs the operation and saves the result, all while
holding the session lock. With a ports.DistributedLocker the lock also spans
replicas.
*/
package session
