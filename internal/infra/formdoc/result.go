package formdoc

import "html/template"

var resultTemplate = template.Must(template.New("result").Funcs(template.FuncMap{"css": css}).Parse(`
<div style="padding: 30px; border-radius: 12px; text-align: center;">
  <h2 style="font-size: 28px; color: black; margin-bottom: 15px;">{{.ScoreText}}</h2>
  <p style="font-size: 18px; margin-bottom: 10px;"><strong>Risk Level:</strong> <span class="risk-level" style="color:{{.RiskColor | css}}">{{.RiskLevel}}</span></p>
  <div style="text-align:left; margin-top:20px;">
    <h3 style="font-size:20px; color:#198754; margin-bottom:8px;">Strengths:</h3>
    <ul class="strengths" style="list-style: disc; padding-left: 20px; color:#198754;">{{range .Strengths}}<li>{{.}}</li>{{end}}</ul>
    <h3 style="font-size:20px; color:#dc3545; margin-bottom:8px; margin-top:15px;">Weaknesses:</h3>
    <ul class="weaknesses" style="list-style: disc; padding-left: 20px; color:#dc3545;">{{range .Weaknesses}}<li>{{.}}</li>{{end}}</ul>
  </div>
  <div class="result-actions" style="margin-top:25px; display:flex; justify-content:center; gap:15px; flex-wrap:wrap;">
  {{range .Actions}}{{if .Reload}}<form method="post" action="/assessment/reset"><button type="submit" style="padding:10px 20px; background:#C92A4D; color:white; border:none; border-radius:8px; cursor:pointer; font-size:16px;">{{.Label}}</button></form>{{else}}<a href="{{.Href}}" style="padding:10px 20px; background:#0e0e0e; color:white; border-radius:8px; font-size:16px; text-decoration:none; display:flex; align-items:center;">{{.Label}}</a>{{end}}{{end}}
  </div>
</div>`))

// css marks a color from the fixed risk palette as safe style content.
func css(s string) template.CSS {
	return template.CSS(s)
}
