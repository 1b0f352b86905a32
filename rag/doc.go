// Package rag implements the document-grounded responder: a PDF corpus is
// loaded, split into overlapping sentence-aligned chunks, embedded into a
// chromem vector collection and queried to build a context-only tutor prompt.
package rag
