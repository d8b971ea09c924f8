package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// rawAbsence mirrors the host's absence payload.
type rawAbsence struct {
	Person struct {
		DomainIdentifier string `json:"domainIdentifier"`
	} `json:"person"`
	PersonID      int `json:"personId"`
	AbsenceReason struct {
		ID int `json:"id"`
	} `json:"absenceReason"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

// Absences fetches a user's absence records overlapping the window. The
// host owns absences; this extension only reads them for hour credit.
func (c *Client) Absences(ctx context.Context, userID int, window engine.Window) ([]engine.Absence, error) {
	path := fmt.Sprintf("/persons/%d/absences?%s", userID, url.Values{
		"from": {window.Start.String()},
		"to":   {window.End.String()},
	}.Encode())

	var raws []rawAbsence
	if err := c.do(ctx, http.MethodGet, path, nil, &raws); err != nil {
		return nil, err
	}

	absences := make([]engine.Absence, 0, len(raws))
	for _, raw := range raws {
		start, err := engine.ParseDay(raw.StartDate)
		if err != nil {
			continue
		}
		end, err := engine.ParseDay(raw.EndDate)
		if err != nil {
			continue
		}

		a := engine.Absence{
			UserID:          userID,
			AbsenceReasonID: raw.AbsenceReason.ID,
			StartDate:       start,
			EndDate:         end,
			IsFullDay:       raw.StartTime == nil,
		}
		if raw.StartTime != nil && raw.EndTime != nil {
			a.StartTime = *raw.StartTime
			a.EndTime = *raw.EndTime
		}
		absences = append(absences, a)
	}
	return absences, nil
}
