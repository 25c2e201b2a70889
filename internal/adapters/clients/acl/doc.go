// Package acl is the Anti-Corruption Layer between the service and its two
// downstream systems: the remote quote document and the chat REST API.
//
// Nothing shaped like an external payload leaves this package. The quote
// document is translated into a [domain.QuoteCollection] by
// [ParseQuoteDocument], and chat API failures are translated into domain
// errors by [MapHTTPError].
//
// # Components
//
//   - [BaseAdapter]: embeddable request plumbing with error mapping
//   - [QuoteSource]: ports.QuoteSource over HTTP GET
//   - [ChatSender]: ports.MessageSender posting embeds to a channel
//   - [ParseQuoteDocument]: strict top level, lenient below it
//   - [MapHTTPError], [MapAPICode]: status and JSON code to domain error
//
// # Error Handling Strategy
//
// HTTP and transport failures map to domain errors:
//   - 404 Not Found, Unknown Channel → [domain.ErrNotFound]
//   - 409 Conflict → [domain.ErrConflict]
//   - 400/422, Invalid Form Body → [domain.ErrValidation]
//   - 401/403, Missing Access/Permissions → [domain.ErrForbidden]
//   - 429, 5xx, network → [domain.ErrUnavailable]
//
// The quote source additionally wraps every retrieval failure in a
// [domain.FetchError] so the cache can tell it apart from a
// [domain.MalformedDocumentError].
package acl
