// Package solver talks to the external constraint solver over HTTP.
// The solver is an opaque collaborator: submit a planning request, get
// a job ID, poll until the solution is final. Solutions are flattened
// into plan snapshots before the caller appends them to the store.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// Request is the planning request sent to the solver. Wishes,
// absences and preflight patterns are forwarded as-is; the solver owns
// their interpretation.
type Request struct {
	From       string                 `json:"von"`
	To         string                 `json:"bis"`
	Employees  []models.Employee      `json:"mitarbeiterList"`
	Wishes     []models.Wish          `json:"wuensche"`
	Absences   []models.AbsenceRecord `json:"abwesenheiten"`
	Preflights []models.Wish          `json:"preflights"`
}

// Solution is the solver's output shape: the employee list plus the
// assigned work patterns, each holding dated shifts.
type Solution struct {
	Employees []SolutionEmployee `json:"mitarbeiterList"`
	Patterns  []Pattern          `json:"arbeitsmusterList"`
}

// SolutionEmployee carries the solver's employee reference.
type SolutionEmployee struct {
	ID string `json:"id"`
}

// Pattern is one assigned work pattern.
type Pattern struct {
	Employee *SolutionEmployee `json:"mitarbeiter"`
	Shifts   []PatternShift    `json:"schichten"`
}

// PatternShift is one dated shift inside a pattern. Times arrive as
// "HH:MM:SS" and are truncated to "HH:MM".
type PatternShift struct {
	Date    string `json:"datum"`
	Start   string `json:"startZeit"`
	End     string `json:"endZeit"`
	Minutes int    `json:"arbeitszeitInMinuten"`
}

// Status is one poll result.
type Status struct {
	JobID    string
	Running  bool
	Solution *Solution
}

// Client calls the solver service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the solver at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Solve submits a planning request and returns the solver's job ID.
func (c *Client) Solve(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode solve request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/solve", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("solver unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("solver rejected request: %s: %s", resp.Status, data)
	}

	var out struct {
		ProblemID string `json:"problemId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode solve response: %w", err)
	}
	if out.ProblemID == "" {
		return "", fmt.Errorf("solver returned no problem id")
	}
	return out.ProblemID, nil
}

// Result polls one job. 202 from the solver means still running; 200
// carries the (possibly best-so-far) solution.
func (c *Client) Result(ctx context.Context, jobID string) (*Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/planungs-ergebnis/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solver unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return &Status{JobID: jobID, Running: true}, nil
	case http.StatusOK:
		var sol Solution
		if err := json.NewDecoder(resp.Body).Decode(&sol); err != nil {
			return nil, fmt.Errorf("decode solution: %w", err)
		}
		return &Status{JobID: jobID, Solution: &sol}, nil
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("solver poll failed: %s: %s", resp.Status, data)
	}
}

// Snapshot flattens a solution into a plan snapshot: every dated shift
// in every assigned pattern becomes a working-time entry of its
// pattern's employee. Unassigned patterns and undated shifts are
// skipped.
func Snapshot(sol *Solution) models.PlanSnapshot {
	byID := make(map[string]*models.PlanEmployee, len(sol.Employees))
	order := make([]string, 0, len(sol.Employees))
	for _, e := range sol.Employees {
		if _, ok := byID[e.ID]; ok {
			continue
		}
		byID[e.ID] = &models.PlanEmployee{
			EmployeeID:   e.ID,
			WorkingTimes: models.WorkingTimes{},
		}
		order = append(order, e.ID)
	}

	for _, pat := range sol.Patterns {
		if pat.Employee == nil {
			continue
		}
		pe, ok := byID[pat.Employee.ID]
		if !ok {
			pe = &models.PlanEmployee{
				EmployeeID:   pat.Employee.ID,
				WorkingTimes: models.WorkingTimes{},
			}
			byID[pat.Employee.ID] = pe
			order = append(order, pat.Employee.ID)
		}
		for _, sh := range pat.Shifts {
			if sh.Date == "" || sh.Start == "" || sh.End == "" {
				continue
			}
			pe.WorkingTimes[sh.Date] = models.ShiftEntry{
				Start: clock(sh.Start),
				End:   clock(sh.End),
			}
		}
	}

	snap := models.PlanSnapshot{CreatedAt: time.Now()}
	for _, id := range order {
		snap.Employees = append(snap.Employees, *byID[id])
	}
	return snap
}

// clock truncates "HH:MM:SS" to "HH:MM".
func clock(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
