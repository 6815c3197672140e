/*
Package observability provides tools for monitoring the trimming workflow.

It turns controller lifecycle events into Prometheus metrics and structured
log lines. Both are plain domain.LifecycleHooks and can be combined with
domain.CombineHooks.
*/
package observability
