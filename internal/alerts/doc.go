// Package alerts implements the rule evaluation engine and webhook delivery
// for regionpulse alerting. Rules are evaluated against the per-region
// summaries computed for each query; webhooks are delivered to Slack, Teams,
// or generic HTTP targets.
package alerts
