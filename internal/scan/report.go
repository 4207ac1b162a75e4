package scan

import (
	"github.com/workprice/workprice/models"
)

// Job defines one document for a worker to annotate. Source is a file path
// or an http(s) URL.
type Job struct {
	Source string
}

// Result holds the outcome of a processed job.
type Result struct {
	Source        string
	OutputPath    string
	Prices        []PriceEntry
	Total         models.TimeBreakdown
	Language      string
	Error         error
	ErrorType     string
	FileSizeBytes int64
}

// PriceEntry is one annotated price in the final report.
type PriceEntry struct {
	Raw      string `json:"raw" yaml:"raw"`
	Amount   string `json:"amount" yaml:"amount"`
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
	Strategy string `json:"strategy" yaml:"strategy"`
	WorkTime string `json:"work_time" yaml:"work_time"`
}

// DocumentReport is the per-document section of the final output.
type DocumentReport struct {
	Source        string       `json:"source" yaml:"source"`
	Status        string       `json:"status" yaml:"status"`
	OutputPath    string       `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Language      string       `json:"language,omitempty" yaml:"language,omitempty"`
	Prices        []PriceEntry `json:"prices,omitempty" yaml:"prices,omitempty"`
	TotalWorkTime string       `json:"total_work_time,omitempty" yaml:"total_work_time,omitempty"`
	Error         string       `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType     string       `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// Stats aggregates the whole run.
type Stats struct {
	TotalDocuments   int     `json:"total_documents" yaml:"total_documents"`
	Successful       int     `json:"successful" yaml:"successful"`
	Failed           int     `json:"failed" yaml:"failed"`
	PricesFound      int     `json:"prices_found" yaml:"prices_found"`
	TotalWorkTime    string  `json:"total_work_time" yaml:"total_work_time"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}

// FinalOutput is the top-level report printed to stdout.
type FinalOutput struct {
	Status    string           `json:"status" yaml:"status"`
	Documents []DocumentReport `json:"documents" yaml:"documents"`
	Stats     Stats            `json:"stats" yaml:"stats"`
}

// BuildDocumentReport converts a worker result into its report section.
func BuildDocumentReport(r Result) DocumentReport {
	report := DocumentReport{
		Source:     r.Source,
		OutputPath: r.OutputPath,
		Language:   r.Language,
		Prices:     r.Prices,
	}
	if r.Error != nil {
		report.Status = "failed"
		report.Error = r.Error.Error()
		report.ErrorType = r.ErrorType
		return report
	}
	report.Status = "success"
	if len(r.Prices) > 0 {
		report.TotalWorkTime = r.Total.String()
	}
	return report
}
