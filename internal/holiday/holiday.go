// Package holiday supplies the set of Japanese public holidays used by
// the schedule day classification. Dates come from the Cabinet Office
// CSV feed, cached per year, with a small fixed fallback list when the
// feed is unreachable.
package holiday

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultFeedURL = "https://www8.cao.go.jp/chosei/shukujitsu/syukujitsu.csv"

// Service fetches and caches holiday dates.
type Service struct {
	client  *http.Client
	feedURL string

	mu        sync.RWMutex
	byYear    map[int]map[string]string // year -> date -> name
	fetchedAt map[int]time.Time
}

const cacheTTL = 24 * time.Hour

func NewService() *Service {
	return &Service{
		client:    &http.Client{Timeout: 10 * time.Second},
		feedURL:   defaultFeedURL,
		byYear:    make(map[int]map[string]string),
		fetchedAt: make(map[int]time.Time),
	}
}

// Holidays returns date -> name for one year, fetching from the feed if
// the cache is stale. Feed failures fall back to the fixed list; stale
// cached data is preferred over the fallback.
func (s *Service) Holidays(year int) map[string]string {
	s.mu.RLock()
	if cached, ok := s.byYear[year]; ok && time.Since(s.fetchedAt[year]) < cacheTTL {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.byYear[year]; ok && time.Since(s.fetchedAt[year]) < cacheTTL {
		return cached
	}

	fetched, err := s.fetch(year)
	if err != nil {
		if cached, ok := s.byYear[year]; ok {
			return cached
		}
		return fallbackHolidays(year)
	}

	s.byYear[year] = fetched
	s.fetchedAt[year] = time.Now()
	return fetched
}

// DateSet returns the holidays for [startYear, endYear] as a lookup set
// of ISO dates, the shape the schedule classifier consumes.
func (s *Service) DateSet(startYear, endYear int) map[string]bool {
	set := make(map[string]bool)
	for year := startYear; year <= endYear; year++ {
		for date := range s.Holidays(year) {
			set[date] = true
		}
	}
	return set
}

func (s *Service) fetch(year int) (map[string]string, error) {
	resp, err := s.client.Get(s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("holiday feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday feed returned status %d", resp.StatusCode)
	}

	holidays := make(map[string]string)
	scanner := bufio.NewScanner(resp.Body)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first { // header row
			first = false
			continue
		}
		date, name, ok := ParseFeedLine(line)
		if !ok {
			continue
		}
		if strings.HasPrefix(date, fmt.Sprintf("%04d-", year)) {
			holidays[date] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read holiday feed: %w", err)
	}
	return holidays, nil
}

// ParseFeedLine parses one CSV line of the feed. The feed uses
// "YYYY/M/D,name" rows, sometimes quoted; the date is normalized to
// YYYY-MM-DD.
func ParseFeedLine(line string) (date, name string, ok bool) {
	if line == "" {
		return "", "", false
	}
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	rawDate := strings.Trim(parts[0], `" `)
	name = strings.Trim(parts[1], `" `)

	t, err := time.Parse("2006/1/2", rawDate)
	if err != nil {
		// Some mirrors serve ISO dates already.
		t, err = time.Parse("2006-01-02", rawDate)
		if err != nil {
			return "", "", false
		}
	}
	return t.Format("2006-01-02"), name, true
}

// fallbackHolidays covers the fixed-date holidays so day classification
// keeps working offline. Movable holidays (equinoxes, happy-Monday
// holidays) are only available from the feed.
func fallbackHolidays(year int) map[string]string {
	fixed := []struct {
		month, day int
		name       string
	}{
		{1, 1, "元日"},
		{2, 11, "建国記念の日"},
		{2, 23, "天皇誕生日"},
		{4, 29, "昭和の日"},
		{5, 3, "憲法記念日"},
		{5, 4, "みどりの日"},
		{5, 5, "こどもの日"},
		{8, 11, "山の日"},
		{11, 3, "文化の日"},
		{11, 23, "勤労感謝の日"},
	}

	holidays := make(map[string]string, len(fixed))
	for _, h := range fixed {
		holidays[fmt.Sprintf("%04d-%02d-%02d", year, h.month, h.day)] = h.name
	}
	return holidays
}
