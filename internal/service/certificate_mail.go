package service

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"strconv"
	texttmpl "text/template"

	"go_course_progress/internal/model"
)

const certificateMailCategory = "certificate_unlocked"

// certificateMailData はテンプレートに渡す値
type certificateMailData struct {
	LearnerName    string
	CourseTitle    string
	CompletionDate string
	AverageScore   string
	CompletedUnits int
	TotalUnits     int
	PortalURL      string
}

var (
	certificateSubjectTmpl = texttmpl.Must(texttmpl.New("subject").Parse(
		`【{{.CourseTitle}}】修了証明書を取得できます`))

	certificateTextTmpl = texttmpl.Must(texttmpl.New("certificate.txt").Option("missingkey=error").Parse(
		`{{.LearnerName}} さん

「{{.CourseTitle}}」の全ユニット ({{.CompletedUnits}}/{{.TotalUnits}}) を修了しました。
修了日: {{.CompletionDate}}
平均スコア: {{.AverageScore}}
{{if .PortalURL}}
証明書ページ: {{.PortalURL}}
{{else}}
証明書ページからダウンロードしてください。
{{end}}`))

	certificateHTMLTmpl = htmltmpl.Must(htmltmpl.New("certificate.gohtml").Option("missingkey=error").Parse(
		`<!DOCTYPE html>
<html lang="ja">
<body>
<p>{{.LearnerName}} さん</p>
<p>「{{.CourseTitle}}」の全ユニット ({{.CompletedUnits}}/{{.TotalUnits}}) を修了しました。</p>
<table>
<tr><th>修了日</th><td>{{.CompletionDate}}</td></tr>
<tr><th>平均スコア</th><td>{{.AverageScore}}</td></tr>
</table>
{{if .PortalURL}}<p><a href="{{.PortalURL}}">証明書をダウンロード</a></p>{{else}}<p>証明書ページからダウンロードしてください。</p>{{end}}
</body>
</html>
`))
)

// NewCertificateMessage は証明書取得可能の通知メールを組み立てる
func NewCertificateMessage(learner model.Learner, view model.CertificateView, portalURL string) (model.MailMessage, error) {
	name := view.LearnerName
	if name == "" {
		name = learner.Name
	}
	data := certificateMailData{
		LearnerName:    name,
		CourseTitle:    view.CourseTitle,
		CompletionDate: view.CompletionDateText,
		AverageScore:   fmt.Sprintf("%.2f", view.AverageScore),
		CompletedUnits: view.CompletedUnits,
		TotalUnits:     view.TotalUnits,
		PortalURL:      portalURL,
	}

	var subject, text, html bytes.Buffer
	if err := certificateSubjectTmpl.Execute(&subject, data); err != nil {
		return model.MailMessage{}, fmt.Errorf("NewCertificateMessage: subject: %w", err)
	}
	if err := certificateTextTmpl.Execute(&text, data); err != nil {
		return model.MailMessage{}, fmt.Errorf("NewCertificateMessage: text: %w", err)
	}
	if err := certificateHTMLTmpl.Execute(&html, data); err != nil {
		return model.MailMessage{}, fmt.Errorf("NewCertificateMessage: html: %w", err)
	}

	return model.MailMessage{
		To:      learner.Email,
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
		Tags: map[string]string{
			"category":  certificateMailCategory,
			"course_id": strconv.FormatUint(uint64(view.CourseID), 10),
		},
	}, nil
}
