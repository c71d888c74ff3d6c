package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns an identifier of the form prefix-<8 hex chars>-<base36 unix millis>.
func NewID(prefix string) string {
	segment, _, _ := strings.Cut(uuid.NewString(), "-")
	return prefix + "-" + segment + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
