package server

import (
	"fmt"
	"strconv"
	"strings"

	"netsim-results/src/analysis"
	"netsim-results/src/models"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 1000

// -----------------------------------------------------------------------------

// filterState copies state keeping only the listed protocols (all when
// protocols is empty). The input is never modified.
func filterState(state *models.MLatestData, protocols []string) *models.MLatestData {
	if state == nil {
		return &models.MLatestData{Type: "INITIAL"}
	}
	out := *state
	out.Summary = analysis.FilterSummaryView(state.Summary, protocols)
	return &out
}

// -----------------------------------------------------------------------------

// queryProtocols accepts ?protocol=A&protocol=B as well as ?protocol=A,B.
func queryProtocols(c *gin.Context) []string {
	var protocols []string
	for _, raw := range c.QueryArray("protocol") {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protocols = append(protocols, p)
			}
		}
	}
	return protocols
}

// -----------------------------------------------------------------------------

func parseLimit(raw string, fallback int) (int, error) {
	if raw == "" {
		if fallback <= 0 {
			fallback = 50
		}
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}
