package middleware

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// sensitiveHeaderPatterns matches headers whose values must be redacted
var sensitiveHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)authorization`),
	regexp.MustCompile(`(?i)api[-_]?key`),
	regexp.MustCompile(`(?i)token`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)cookie`),
}

// isSensitiveHeader reports whether a header's value must not be logged
func isSensitiveHeader(name string) bool {
	for _, pattern := range sensitiveHeaderPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// LoggerConfig holds configuration for the request logger middleware
type LoggerConfig struct {
	// LogHeaders enables logging of request headers (redacted)
	LogHeaders bool
}

// RequestLogger logs every request with method, path, status and
// latency. Multipart upload bodies are never captured; header values
// matching the sensitive patterns are redacted.
func RequestLogger(config LoggerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(startTime)
		status := c.Writer.Status()

		log.Printf("%s %s -> %d (%s) size=%d",
			c.Request.Method, path, status, latency, c.Writer.Size())

		if config.LogHeaders {
			var headers []string
			for name, values := range c.Request.Header {
				value := strings.Join(values, ",")
				if isSensitiveHeader(name) {
					value = "[REDACTED]"
				}
				headers = append(headers, name+"="+value)
			}
			log.Printf("headers for %s %s: %s", c.Request.Method, path, strings.Join(headers, " "))
		}

		for _, err := range c.Errors {
			log.Printf("request error on %s %s: %v", c.Request.Method, path, err)
		}
	}
}
