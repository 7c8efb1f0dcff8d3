package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Change.Plan.PlanName}} price {{.Direction}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }
    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }
    .header {
      padding: 20px 24px;
      background: #1f2937;
      color: #ffffff;
    }
    .plan {
      font-size: 22px;
      font-weight: 700;
    }
    .body {
      padding: 20px 24px;
    }
    .price {
      font-size: 20px;
      margin-bottom: 12px;
    }
    .drop { color: #047857; }
    .increase { color: #b91c1c; }
    td { padding: 4px 12px 4px 0; vertical-align: top; }
    td.label { color: #6b7280; white-space: nowrap; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="plan">{{.Change.Plan.PlanName}}</div>
      <div>{{if .Change.Plan.Provider}}{{.Change.Plan.Provider}}{{else}}{{.Change.Plan.URL}}{{end}}</div>
    </div>
    <div class="body">
      <div class="price">
        {{money .Change.OldPrice}} &rarr; <strong class="{{.Direction}}">{{money .Change.NewPrice}}</strong> ({{.Delta}})
      </div>
      <table>
        <tr><td class="label">Speed</td><td>{{.Change.Plan.DownloadSpeed}}/{{.Change.Plan.UploadSpeed}} Mbps</td></tr>
        <tr><td class="label">Page</td><td><a href="{{.Change.Plan.URL}}">{{.Change.Plan.URL}}</a></td></tr>
        {{if .Checked}}<tr><td class="label">Checked</td><td>{{.Checked}}</td></tr>{{end}}
        {{with .Change.Verification}}<tr><td class="label">Confidence</td><td>{{printf "%.2f" .ConfidenceScore}}</td></tr>{{end}}
        {{if .Promo}}<tr><td class="label">Promotion</td><td>{{.Promo}}</td></tr>{{end}}
        {{if .Details}}<tr><td class="label">Details</td><td>{{.Details}}</td></tr>{{end}}
      </table>
    </div>
  </div>
</body>
</html>
`
