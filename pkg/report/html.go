package report

import (
	"fmt"
	"html/template"
	"os"

	"github.com/relaihq/webpilot/pkg/types"
)

// reportTemplate is a self-contained HTML view of one test run.
// Screenshot paths are emitted as-is; the screenshots directory is
// expected to sit next to the report files.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"statusClass": func(s types.ActionStatus) string {
		if s == types.ActionPassed {
			return "passed"
		}
		return "failed"
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.TestName}} - webpilot report</title>
<style>
  body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem; color: #1f2328; }
  h1 { margin-bottom: 0.25rem; }
  .meta { color: #656d76; margin-bottom: 1.5rem; }
  .result { font-weight: 600; text-transform: uppercase; }
  .result.pass { color: #1a7f37; }
  .result.fail { color: #cf222e; }
  table { border-collapse: collapse; width: 100%; }
  th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #d0d7de; vertical-align: top; }
  tr.failed td { background: #fff1f0; }
  .status.passed { color: #1a7f37; }
  .status.failed { color: #cf222e; }
  .error { font-family: monospace; font-size: 0.85rem; white-space: pre-wrap; }
  .params { font-family: monospace; font-size: 0.85rem; color: #656d76; }
  img.shot { max-width: 320px; border: 1px solid #d0d7de; }
</style>
</head>
<body>
<h1>{{.TestName}}</h1>
<p class="meta">
  <span class="result {{.Result}}">{{.Result}}</span>
  &middot; {{.PassedActions}} passed, {{.FailedActions}} failed, {{.TotalActions}} total
  &middot; {{.DurationMS}} ms
  &middot; started {{.StartTime.Format "2006-01-02 15:04:05"}}
</p>
<table>
<tr><th>#</th><th>Tool</th><th>Status</th><th>Duration</th><th>Details</th></tr>
{{range $i, $a := .Actions}}
<tr class="{{statusClass $a.Status}}">
  <td>{{$i}}</td>
  <td>{{$a.Tool}}{{if $a.IsAssertion}} (assertion){{end}}</td>
  <td class="status {{statusClass $a.Status}}">{{$a.Status}}</td>
  <td>{{$a.DurationMS}} ms</td>
  <td>
    {{if $a.Error}}<div class="error">{{$a.Error}}</div>{{end}}
    {{if $a.Params}}<div class="params">{{printf "%v" $a.Params}}</div>{{end}}
    {{if $a.Screenshot}}<a href="{{$a.Screenshot}}"><img class="shot" src="{{$a.Screenshot}}" alt="screenshot"></a>{{end}}
  </td>
</tr>
{{end}}
</table>
</body>
</html>
`))

// writeHTML renders the HTML report for one test.
func (w *Writer) writeHTML(path string, rep *types.TestReport) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer file.Close()

	if err := reportTemplate.Execute(file, rep); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}
