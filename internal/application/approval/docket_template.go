package approval

// docketTemplate is the printable approval docket. It is rendered with a
// docketData value and must stay self-contained: the PDF renderer loads
// no external stylesheets or fonts.
const docketTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #1a1a1a; margin: 0; }
  .header { border-bottom: 2px solid #1a1a1a; padding-bottom: 10px; margin-bottom: 14px; }
  .header h1 { font-size: 18px; margin: 0 0 4px 0; }
  .meta { color: #555; font-size: 10px; margin-bottom: 6px; }
  .status { display: inline-block; padding: 2px 10px; border-radius: 3px; font-weight: bold; font-size: 11px; }
  .status.pending-approval { background: #fef3c7; color: #b45309; }
  .status.approved { background: #dbeafe; color: #1d4ed8; }
  .status.in-progress { background: #ede9fe; color: #6d28d9; }
  .status.completed { background: #dcfce7; color: #15803d; }
  .status.failed { background: #fee2e2; color: #b91c1c; }
  .status.rejected { background: #e2e8f0; color: #334155; }
  h2 { font-size: 13px; border-bottom: 1px solid #ccc; padding-bottom: 3px; margin: 16px 0 6px 0; }
  table { width: 100%; border-collapse: collapse; }
  .fields td { padding: 3px 6px; vertical-align: top; }
  .fields td.label { width: 180px; color: #555; }
  .history th, .history td { border: 1px solid #ddd; padding: 4px 6px; text-align: left; font-size: 11px; }
  .history th { background: #f2f2f2; }
  .sign { margin-top: 48px; }
  .sign td { width: 33%; padding: 28px 12px 0 12px; }
  .sign .line { border-top: 1px solid #1a1a1a; padding-top: 4px; text-align: center; font-size: 10px; color: #555; }
</style>
</head>
<body>
  <div class="header">
    <h1>{{.Title}}</h1>
    <div class="meta">Request {{.ID}} &middot; Generated {{.GeneratedAt}}</div>
    <span class="status {{.StatusClass}}">{{.Status}}</span>
  </div>

  <h2>Request</h2>
  <table class="fields">
    {{range .Request}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
  </table>

  <h2>Workflow</h2>
  <table class="fields">
    {{range .Workflow}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
  </table>

  {{if .Outcome}}
  <h2>Creation Outcome</h2>
  <table class="fields">
    {{range .Outcome}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
  </table>
  {{end}}

  {{if .Snapshot}}
  <h2>Source Document Snapshot</h2>
  <table class="fields">
    {{range .Snapshot}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
  </table>
  {{end}}

  {{if .History}}
  <h2>History</h2>
  <table class="history">
    <tr><th>Time</th><th>Event</th><th>Recipient</th><th>Channel</th></tr>
    {{range .History}}<tr><td>{{.Timestamp}}</td><td>{{.Event}}</td><td>{{.Recipient}}</td><td>{{.Channel}}</td></tr>
    {{end}}
  </table>
  {{end}}

  <table class="sign">
    <tr>
      <td><div class="line">Requested By</div></td>
      <td><div class="line">Approved By</div></td>
      <td><div class="line">Filed By</div></td>
    </tr>
  </table>
</body>
</html>`
