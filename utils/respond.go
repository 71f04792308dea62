// utils/respond.go
package utils

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response wrapper. Every response carries an
// ISO-8601 UTC timestamp.
type Envelope struct {
	Success   bool     `json:"success"`
	Data      any      `json:"data,omitempty"`
	Message   string   `json:"message,omitempty"`
	Error     string   `json:"error,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Endpoint  string   `json:"endpoint,omitempty"`
	Timestamp string   `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RespondWithError writes an error envelope with the given status.
func RespondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success:   false,
		Error:     message,
		Endpoint:  c.FullPath(),
		Timestamp: now(),
	})
}

// RespondWithErrors writes an error envelope carrying a list of
// human-readable validation messages.
func RespondWithErrors(c *gin.Context, status int, message string, errs []string) {
	c.JSON(status, Envelope{
		Success:   false,
		Error:     message,
		Errors:    errs,
		Endpoint:  c.FullPath(),
		Timestamp: now(),
	})
}

// RespondWithData writes a success envelope. A nil data is legitimate: a
// missing record is a success with null data, not an error.
func RespondWithData(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Endpoint:  c.FullPath(),
		Timestamp: now(),
	})
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomString returns n random alphanumeric characters.
func GenerateRandomString(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = randomAlphabet[0]
			continue
		}
		out[i] = randomAlphabet[idx.Int64()]
	}
	return string(out)
}
