package stats

import (
	"database/sql"
	"log"
	"net/http"

	"aneti-backend/login"
	"aneti-backend/plans"

	"github.com/gin-gonic/gin"
)

var db *sql.DB

// Init sets the DB connection for stats queries
func Init(database *sql.DB) {
	db = database
}

// AdminStatsResponse is the admin dashboard payload. Everything is recomputed
// per request; dashboard traffic is low and each block is one grouped query.
type AdminStatsResponse struct {
	Members       MemberStats  `json:"members"`
	PendingQueue  int          `json:"pending_queue"`
	YearlyRevenue int64        `json:"yearly_revenue_estimate"`
	ByTier        []TierStats  `json:"by_tier"`
	ByState       []StateStats `json:"by_state"`
}

type MemberStats struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	NewThisMonth  int     `json:"new_this_month"`
	NewLastMonth  int     `json:"new_last_month"`
	GrowthPercent float64 `json:"growth_percent"`
}

type TierStats struct {
	Tier       string  `json:"tier"`
	Count      int     `json:"count"`
	LastMonth  int     `json:"last_month"`
	Percentage float64 `json:"percentage"`
}

type StateStats struct {
	State  string      `json:"state"`
	Count  int         `json:"count"`
	Cities []CityStats `json:"cities"`
}

type CityStats struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// RegisterAdminRoutes registers the dashboard endpoint behind the admin session.
func RegisterAdminRoutes(r *gin.Engine) {
	r.GET("/admin/stats", login.AdminRequired(), getAdminStats)
}

func getAdminStats(c *gin.Context) {
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not initialized"})
		return
	}

	log.Printf("[ADMIN_STATS] fetching dashboard statistics")

	response := AdminStatsResponse{
		Members:       getMemberStats(),
		PendingQueue:  getPendingQueue(),
		YearlyRevenue: getYearlyRevenueEstimate(),
		ByTier:        getMembersByTier(),
		ByState:       getMembersByState(),
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

func getMemberStats() MemberStats {
	stats := MemberStats{}

	db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'member'").Scan(&stats.Total)

	db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'member' AND is_approved = 1 AND is_active = 1").Scan(&stats.Active)

	db.QueryRow(`
		SELECT COUNT(*)
		FROM users
		WHERE role = 'member'
		  AND created_at >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.NewThisMonth)

	db.QueryRow(`
		SELECT COUNT(*)
		FROM users
		WHERE role = 'member'
		  AND created_at >= DATE_FORMAT(DATE_SUB(NOW(), INTERVAL 1 MONTH), '%Y-%m-01')
		  AND created_at < DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.NewLastMonth)

	if stats.NewLastMonth > 0 {
		stats.GrowthPercent = ((float64(stats.NewThisMonth) - float64(stats.NewLastMonth)) / float64(stats.NewLastMonth)) * 100
	} else if stats.NewThisMonth > 0 {
		stats.GrowthPercent = 100
	}

	log.Printf("[ADMIN_STATS] members: total=%d active=%d new_month=%d growth=%.2f%%",
		stats.Total, stats.Active, stats.NewThisMonth, stats.GrowthPercent)

	return stats
}

func getPendingQueue() int {
	var count int
	db.QueryRow("SELECT COUNT(*) FROM applications WHERE status IN ('pending', 'documents_requested')").Scan(&count)
	return count
}

// getYearlyRevenueEstimate sums plan price × active subscriber count, in
// centavos. Approximate: no proration, mid-cycle cancellations or discounts.
func getYearlyRevenueEstimate() int64 {
	var total sql.NullInt64
	db.QueryRow(`
		SELECT IFNULL(SUM(p.price), 0)
		FROM users u
		JOIN membership_plans p ON u.plan_name = p.name
		WHERE u.is_approved = 1 AND u.is_active = 1 AND p.price > 0
	`).Scan(&total)
	return total.Int64
}

// getMembersByTier groups approved members over the closed tier enum, so a
// renamed or admin-invented plan never silently vanishes from the dashboard
// math (unknown names aggregate under their stored label).
func getMembersByTier() []TierStats {
	counts := map[string]int{}
	lastMonth := map[string]int{}
	total := 0

	rows, err := db.Query(`
		SELECT plan_name, COUNT(*)
		FROM users
		WHERE is_approved = 1 AND is_active = 1 AND plan_name <> ''
		GROUP BY plan_name
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var name string
			var n int
			if rows.Scan(&name, &n) == nil {
				counts[name] = n
				total += n
			}
		}
	}

	// Same breakdown at the end of the previous calendar month, for the
	// month-over-month comparison.
	lmRows, err := db.Query(`
		SELECT u.plan_name, COUNT(*)
		FROM users u
		JOIN applications a ON a.user_id = u.id AND a.status = 'approved'
		WHERE u.is_active = 1 AND u.plan_name <> ''
		  AND a.reviewed_at < DATE_FORMAT(NOW(), '%Y-%m-01')
		GROUP BY u.plan_name
	`)
	if err == nil {
		defer lmRows.Close()
		for lmRows.Next() {
			var name string
			var n int
			if lmRows.Scan(&name, &n) == nil {
				lastMonth[name] = n
			}
		}
	}

	out := []TierStats{}
	for _, tier := range plans.AllTiers() {
		name := tier.String()
		n := counts[name]
		ts := TierStats{Tier: name, Count: n, LastMonth: lastMonth[name]}
		if total > 0 {
			ts.Percentage = (float64(n) / float64(total)) * 100
		}
		out = append(out, ts)
		delete(counts, name)
	}
	// Admin-created plans outside the standard tiers
	for name, n := range counts {
		ts := TierStats{Tier: name, Count: n, LastMonth: lastMonth[name]}
		if total > 0 {
			ts.Percentage = (float64(n) / float64(total)) * 100
		}
		out = append(out, ts)
	}
	return out
}

func getMembersByState() []StateStats {
	rows, err := db.Query(`
		SELECT state, city, COUNT(*)
		FROM users
		WHERE is_approved = 1 AND is_active = 1 AND state <> ''
		GROUP BY state, city
		ORDER BY state ASC, COUNT(*) DESC
	`)
	if err != nil {
		log.Printf("[ADMIN_STATS] members by state query failed: %v", err)
		return []StateStats{}
	}
	defer rows.Close()

	byState := map[string]*StateStats{}
	order := []string{}
	for rows.Next() {
		var state, city string
		var n int
		if rows.Scan(&state, &city, &n) != nil {
			continue
		}
		s, ok := byState[state]
		if !ok {
			s = &StateStats{State: state}
			byState[state] = s
			order = append(order, state)
		}
		s.Count += n
		if city != "" {
			s.Cities = append(s.Cities, CityStats{City: city, Count: n})
		}
	}

	out := make([]StateStats, 0, len(order))
	for _, state := range order {
		out = append(out, *byState[state])
	}
	return out
}
