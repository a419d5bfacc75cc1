package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lysyi3m/glp1-survey/app/record"
)

const applicationURL = "https://www.accessdata.fda.gov/scripts/cder/daf/index.cfm?event=overview.process&ApplNo="

var submissionStatuses = map[string]string{
	"AP": "Approved",
	"TA": "Tentative Approval",
	"NA": "Not Approved",
	"WD": "Withdrawn",
}

type openFDAResponse struct {
	Results []openFDAResult `json:"results"`
}

type openFDAResult struct {
	ApplicationNumber string `json:"application_number"`
	SponsorName       string `json:"sponsor_name"`
	OpenFDA           struct {
		GenericName []string `json:"generic_name"`
		BrandName   []string `json:"brand_name"`
	} `json:"openfda"`
	Submissions []struct {
		SubmissionType       string `json:"submission_type"`
		SubmissionStatus     string `json:"submission_status"`
		SubmissionStatusDate string `json:"submission_status_date"`
	} `json:"submissions"`
}

// OpenFDA decodes drugsfda search results.
type OpenFDA struct{}

func NewOpenFDA() *OpenFDA {
	return &OpenFDA{}
}

func (o *OpenFDA) Run(data []byte) ([]record.RawItem, error) {
	var resp openFDAResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode openFDA response: %w", err)
	}

	items := make([]record.RawItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		generic := first(r.OpenFDA.GenericName)
		brand := first(r.OpenFDA.BrandName)

		name := generic
		if name == "" {
			name = r.SponsorName
		}
		if brand != "" && !strings.EqualFold(brand, name) {
			name = fmt.Sprintf("%s (%s)", brand, name)
		}

		raw := record.RawItem{
			"drug_name": strings.TrimSpace(name),
			"category":  string(record.CategoryApproval),
		}
		if r.ApplicationNumber != "" {
			raw["url"] = applicationURL + r.ApplicationNumber
		}

		var summary []string
		if r.SponsorName != "" {
			summary = append(summary, "Sponsor: "+r.SponsorName)
		}
		if r.ApplicationNumber != "" {
			summary = append(summary, "Application: "+r.ApplicationNumber)
		}
		if len(r.Submissions) > 0 {
			sub := r.Submissions[0]
			status := decodeSubmissionStatus(sub.SubmissionStatus)
			if status != "" {
				summary = append(summary, "Status: "+status)
			}
			raw["date"] = sub.SubmissionStatusDate
		}
		raw["summary"] = strings.Join(summary, "; ")

		items = append(items, raw)
	}

	return items, nil
}

func decodeSubmissionStatus(code string) string {
	if s, ok := submissionStatuses[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
