package report

// PageTemplate is the HTML template for the valuation page: the lookup form
// and, once submitted, the report. It is embedded as a Go constant so the
// binary needs no template files.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{if .Report}}{{.Report.Ticker}} · {{end}}{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  a { color: var(--accent); text-decoration: none; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header h1 { color: var(--accent); }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }

  /* Form */
  .lookup {
    display: flex;
    gap: 8px;
    align-items: flex-end;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .lookup label { display: block; font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .lookup input, .lookup select { padding: 6px 8px; border: 1px solid var(--border); border-radius: 4px; font-size: 1rem; }
  .lookup button { padding: 7px 16px; background: var(--accent); color: white; border: 0; border-radius: 4px; font-weight: 600; cursor: pointer; }
  .error { background: #fef2f2; border-left: 5px solid var(--red); padding: 12px; border-radius: 6px; margin: 12px 0; }
  .warning { color: var(--orange); font-size: 0.85rem; }

  /* Recommendation badge */
  .rec-box {
    display: flex;
    align-items: center;
    gap: 16px;
    padding: 16px;
    border-radius: 8px;
    margin: 12px 0;
  }
  .rec-box.buy { background: #ecfdf5; border-left: 5px solid #22c55e; }
  .rec-box.hold { background: #fefce8; border-left: 5px solid #eab308; }
  .rec-box.sell { background: #fef2f2; border-left: 5px solid var(--red); }
  .rec-box.insufficient { background: #f3f4f6; border-left: 5px solid var(--muted); }
  .rec-label { font-size: 1.4rem; font-weight: 700; }
  .rec-box.buy .rec-label { color: #22c55e; }
  .rec-box.hold .rec-label { color: #eab308; }
  .rec-box.sell .rec-label { color: var(--red); }
  .rec-box.insufficient .rec-label { color: var(--muted); }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  /* Ratio grid */
  .ratio-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(200px, 1fr));
    gap: 8px;
    margin: 10px 0 16px;
  }
  .ratio-card {
    background: var(--section-bg);
    padding: 8px 12px;
    border-radius: 6px;
    display: flex;
    justify-content: space-between;
  }
  .ratio-card .label { color: var(--muted); font-size: 0.85rem; }
  .ratio-card .value { font-weight: 600; }

  /* Chart container */
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }
  ul.headlines { list-style: none; }
  ul.headlines li { padding: 6px 0; border-bottom: 1px solid var(--border); }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Title}}</h1>
  {{with .Report}}<p class="muted">{{.GeneratedAt}}</p>{{end}}
</div>

<form class="lookup" method="post" action="/">
  <div>
    <label for="ticker">Ticker</label>
    <input id="ticker" name="ticker" value="{{.Ticker}}" placeholder="AAPL" required>
  </div>
  <div>
    <label for="strategy">Strategy</label>
    <select id="strategy" name="strategy">
      {{range .Strategies}}<option value="{{.Name}}" title="{{.Description}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
      {{end}}
    </select>
  </div>
  <button type="submit">Evaluate</button>
</form>

{{if .Error}}<div class="error">{{.Error}}</div>{{end}}

{{with .Report}}
<div class="section">
  <h2><span class="ticker-badge">{{.Ticker}}</span> {{.Price}}</h2>

  <div class="rec-box {{.LabelClass}}">
    <div>
      <div class="rec-label">{{.Label}}</div>
      <div class="muted">Strategy: {{.Strategy}}</div>
    </div>
    <p class="explanation">{{.Explanation}}</p>
  </div>
</div>

<div class="section">
  <h2>DCF Valuation</h2>
  <div class="ratio-grid">
    <div class="ratio-card"><span class="label">Fair Value</span><span class="value" id="fair-value">{{.FairValue}}</span></div>
    <div class="ratio-card"><span class="label">Margin of Safety</span><span class="value">{{.MarginOfSafety}}</span></div>
    <div class="ratio-card"><span class="label">Verdict</span><span class="value {{.VerdictClass}}" id="verdict">{{.Verdict}}</span></div>
  </div>
  {{if .DCFNote}}<p class="muted dcf-note">{{.DCFNote}}</p>{{end}}
</div>

<div class="section">
  <h2>Key Metrics</h2>
  <div class="ratio-grid metrics">
    {{range .Metrics}}
    <div class="ratio-card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{end}}
  </div>
  <div class="ratio-grid stats">
    {{range .Stats}}
    <div class="ratio-card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{end}}
  </div>
</div>

{{if .Chart}}
<div class="section">
  <h2>Price Chart</h2>
  <div class="chart-container">{{.Chart}}</div>
</div>
{{end}}

{{if .Headlines}}
<div class="section">
  <h2>Headlines</h2>
  {{if .Sentiment}}<p class="muted sentiment">Tone: {{.Sentiment}}</p>{{end}}
  <ul class="headlines">
    {{range .Headlines}}
    <li><a href="{{.URL}}" rel="noopener" target="_blank">{{.Title}}</a> <span class="muted">{{.Source}}{{if .Published}} · {{.Published}}{{end}}</span></li>
    {{end}}
  </ul>
</div>
{{end}}

{{range .Warnings}}<p class="warning">{{.}}</p>{{end}}
{{end}}

<div class="footer">
  <p>For educational purposes only. Not financial advice.</p>
</div>

</body>
</html>
`
