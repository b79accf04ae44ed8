package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(reportHTML))

// RenderReportHTML renders the lead intelligence report template.
func RenderReportHTML(report Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Lead Report - {{.BuyerName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; color: #1a1a1a; max-width: 760px; margin: 2rem auto; }
    h1 { font-size: 1.5rem; border-bottom: 2px solid #1a1a1a; padding-bottom: 0.5rem; }
    h2 { font-size: 1.1rem; margin-top: 1.5rem; }
    .meta { color: #666; font-size: 0.85em; margin-bottom: 1.5rem; }
    .tier { display: inline-block; padding: 0.2rem 0.6rem; border: 1px solid #1a1a1a; border-radius: 3px; font-size: 0.85em; text-transform: uppercase; }
    .stats { display: flex; gap: 2rem; margin: 1rem 0; }
    .stat { border: 1px solid #ddd; padding: 0.6rem 1rem; border-radius: 4px; }
    .stat .value { font-size: 1.2rem; font-weight: bold; }
    .stat .label { color: #666; font-size: 0.8em; }
    ul { margin: 0.3rem 0; padding-left: 1.3rem; }
    .objection { background: #f5f5f5; padding: 0.6rem 1rem; margin: 0.5rem 0; border-left: 3px solid #1a1a1a; }
    .narrative { font-style: italic; color: #333; }
  </style>
</head>
<body>
  <h1>Lead Intelligence Report</h1>
  <div class="meta">
    {{.BuyerName}}{{if .BuyerEmail}} ({{.BuyerEmail}}){{end}} | {{.FranchiseName}} | Generated {{formatDate .GeneratedAt "Jan 2, 2006"}}
  </div>

  <span class="tier">{{.Insight.EngagementTier}}</span>
  <p>{{.Insight.TierMessage}}</p>

  <div class="stats">
    <div class="stat"><div class="value">{{.TotalTime}}</div><div class="label">Reading time</div></div>
    <div class="stat"><div class="value">{{.SessionCount}}</div><div class="label">Sessions{{if gt .SessionSpan 1}} over {{.SessionSpan}} days{{end}}</div></div>
    <div class="stat"><div class="value">{{.QuestionsAsked}}</div><div class="label">Questions asked</div></div>
  </div>

  <h2>Summary</h2>
  <p>{{.Insight.Summary}}</p>
  {{if .Questions.NarrativeSummary}}<p class="narrative">{{.Questions.NarrativeSummary}}</p>{{end}}

  {{if .Insight.KeyFindings}}
  <h2>Key Findings</h2>
  <ul>{{range .Insight.KeyFindings}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  {{if .Insight.FinancialFitAssessment}}
  <h2>Financial Fit</h2>
  <p>{{.Insight.FinancialFitAssessment}}</p>
  {{end}}

  {{if .Insight.Recommendations}}
  <h2>Recommendations</h2>
  <ul>{{range .Insight.Recommendations}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  {{if .Insight.NextSteps}}
  <h2>Next Steps</h2>
  <ul>{{range .Insight.NextSteps}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  {{with .Insight.SalesStrategy}}
  <h2>Sales Strategy</h2>
  <p><strong>{{.RecommendedApproach}}</strong></p>
  <p>{{.ApproachRationale}}</p>
  {{if .TalkingPoints}}<h2>Talking Points</h2><ul>{{range .TalkingPoints}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .AnticipatedObjections}}
  <h2>Anticipated Objections</h2>
  {{range .AnticipatedObjections}}<div class="objection"><strong>{{.Objection}}</strong><br>{{.Response}}</div>{{end}}
  {{end}}
  {{if .QuestionsToAsk}}<h2>Questions to Ask</h2><ul>{{range .QuestionsToAsk}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{end}}

  {{if .SectionsViewed}}
  <h2>Sections Viewed</h2>
  <ul>{{range .SectionsViewed}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
</body>
</html>`
