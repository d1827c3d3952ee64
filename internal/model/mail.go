package model

// MailMessage は送信するメール。HTML が空ならテキストのみ
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
	// Tags は配信イベントの集計用タグ (SES のみ使う)
	Tags map[string]string
}
