// Package core contains the analysis webhook domain: analysis events, quality
// gate results, webhook endpoints, deliveries and the contracts the dispatch
// pipeline depends on. Storage, transport and settings adapters depend on
// this package; core must not depend on them.
package core
