package memory

import (
	"sync"
	"time"

	"github.com/omarshaarawi/poolpicks/internal/models"
)

type Repository struct {
	week    *models.WeekInfo
	games   map[int][]models.Game
	fetched map[int]time.Time
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

func NewRepository(ttl time.Duration) *Repository {
	return &Repository{
		games:   make(map[int][]models.Game),
		fetched: make(map[int]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *Repository) SaveWeek(week *models.WeekInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.week = week
}

// GetWeek returns the cached week, or nil once it is older than the TTL.
func (r *Repository) GetWeek() *models.WeekInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.week == nil || r.now().Sub(r.week.LastUpdated) > r.ttl {
		return nil
	}
	return r.week
}

func (r *Repository) SaveGames(week int, games []models.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[week] = append([]models.Game(nil), games...)
	r.fetched[week] = r.now()
}

func (r *Repository) GetGames(week int) ([]models.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	games, ok := r.games[week]
	if !ok || r.now().Sub(r.fetched[week]) > r.ttl {
		return nil, false
	}
	return append([]models.Game(nil), games...), true
}
