// Package zendesk implements a connector for the Zendesk Sell CRM.
//
// Two upstream APIs are read:
//
//   - The REST API (/v2/<resource>) for snapshot streams such as contacts,
//     deals and users. Collections are paged by page number; the cursor is
//     a base64 JSON document naming the next page, so an interrupted run
//     resumes at the last committed page.
//
//   - The Sync API (/v2/sync/*) for the events stream. A device identified
//     by the X-Basecrm-Device-UUID header opens a session, drains the main
//     queue and acknowledges every delivered item. The queue position is
//     kept server-side per device; a new device starts from the beginning.
//
// Child streams (associated_contacts, line_items) are read once per parent
// record with the parent id injected into each child record.
//
// # Architecture
//
// The connector follows the driven port pattern defined in [driven.Connector]:
//
//   - Connector: declares streams and hands out feeds
//   - Client: performs HTTP calls with bearer auth and rate limiting
//   - RateLimiter: proactive token bucket plus X-RateLimit header tracking
//   - Cursor: page position of list streams
//
// # Rate Limits
//
// Sell allows 36,000 requests per hour per token. The client throttles
// proactively and reports 429 responses as [RateLimitError], which the
// sync driver retries with backoff.
package zendesk
