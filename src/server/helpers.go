package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// pairParams reads :country and :year, answering 400 when either is invalid.
func pairParams(c *gin.Context) (string, int, bool) {
	country := strings.ToUpper(strings.TrimSpace(c.Param("country")))
	if !isCountryCode(country) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country must be an ISO-3166 alpha-2 code"})
		return "", 0, false
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return "", 0, false
	}
	return country, year, true
}

// -----------------------------------------------------------------------------

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

func normalizeCountries(list []string) map[string]struct{} {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(list))
	for _, cc := range list {
		if cc = strings.ToUpper(strings.TrimSpace(cc)); cc != "" {
			set[cc] = struct{}{}
		}
	}
	return set
}
