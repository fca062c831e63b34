// Package response buffers a CGI response and writes it exactly once.
package response
