// Package domain contains the core types of refchat: indexed documents and
// chunks, search results, and the domain errors shared by all services.
package domain
