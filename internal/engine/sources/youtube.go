package sources

// YouTube implementation is split across four files by responsibility:
//   innertube.go  — Innertube API types, constants, and JSON extraction helpers
//   provider.go   — caption-track enumeration (watch page + ANDROID player),
//                   timedtext fetching, and the transcript provider
//   transcript.go — the transcript resolver: tiered fallback with language
//                   negotiation, translation, and bounded retries
//   dataapi.go    — Data API v3: video metadata and comment threads
