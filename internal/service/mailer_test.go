package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go_course_progress/internal/config"
	"go_course_progress/internal/model"
	servicemocks "go_course_progress/internal/service/mocks"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantType interface{}
		wantErr  bool
	}{
		{name: "正常系: log", cfg: config.Config{Mailer: config.MailerConfig{Type: "log"}}, wantType: &LogMailer{}},
		{name: "正常系: smtp", cfg: config.Config{Mailer: config.MailerConfig{Type: "smtp"}}, wantType: &SmtpMailer{}},
		{name: "正常系: 不明な種類は log", cfg: config.Config{Mailer: config.MailerConfig{Type: "pigeon"}}, wantType: &LogMailer{}},
		{
			name: "正常系: ses (静的な認証情報)",
			cfg: config.Config{
				Mailer: config.MailerConfig{Type: "ses"},
				SES: config.SESConfig{
					Region: "ap-northeast-1", From: "noreply@example.com", AuthType: "static_credentials",
					AccessKeyID: "AKIATEST", SecretAccessKey: "secret",
				},
			},
			wantType: &SESMailer{},
		},
		{
			name: "異常系: ses で認証情報が不足",
			cfg: config.Config{
				Mailer: config.MailerConfig{Type: "ses"},
				SES:    config.SESConfig{Region: "ap-northeast-1", From: "noreply@example.com", AuthType: "static_credentials"},
			},
			wantErr: true,
		},
		{
			name: "異常系: ses で送信元が未設定",
			cfg: config.Config{
				Mailer: config.MailerConfig{Type: "ses"},
				SES:    config.SESConfig{Region: "ap-northeast-1", AuthType: "iam_role"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMailer(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, m)
		})
	}
}

func certificateView() model.CertificateView {
	return model.CertificateView{
		CertificateEligibility: model.CertificateEligibility{
			CourseID: 2, Eligible: true, AverageScore: 81.666, CompletedUnits: 3, TotalUnits: 3,
		},
		LearnerName:        "Alice",
		CourseTitle:        "Go入門",
		CompletionDateText: "2024-05-13",
	}
}

func TestNewCertificateMessage(t *testing.T) {
	learner := model.Learner{UserID: uuid.New(), Name: "Alice", Email: "alice@example.com"}

	t.Run("正常系: テキストとHTMLに修了情報を入れる", func(t *testing.T) {
		msg, err := NewCertificateMessage(learner, certificateView(), "https://learn.example.com/certificates")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", msg.To)
		assert.Equal(t, "【Go入門】修了証明書を取得できます", msg.Subject)
		for _, want := range []string{"Alice さん", "(3/3)", "2024-05-13", "81.67", "https://learn.example.com/certificates"} {
			assert.Contains(t, msg.Text, want)
		}
		assert.Contains(t, msg.HTML, `<a href="https://learn.example.com/certificates">`)
		assert.Contains(t, msg.HTML, "<td>81.67</td>")
		assert.Equal(t, map[string]string{"category": "certificate_unlocked", "course_id": "2"}, msg.Tags)
	})

	t.Run("正常系: URLがなければリンクを出さない", func(t *testing.T) {
		msg, err := NewCertificateMessage(learner, certificateView(), "")
		require.NoError(t, err)
		assert.Contains(t, msg.Text, "証明書ページからダウンロードしてください。")
		assert.NotContains(t, msg.HTML, "<a ")
	})

	t.Run("正常系: HTMLでは名前をエスケープする", func(t *testing.T) {
		view := certificateView()
		view.LearnerName = "<b>Mallory</b>"
		msg, err := NewCertificateMessage(learner, view, "")
		require.NoError(t, err)
		assert.Contains(t, msg.HTML, "&lt;b&gt;Mallory&lt;/b&gt;")
		assert.Contains(t, msg.Text, "<b>Mallory</b>")
	})

	t.Run("正常系: 表示名がなければ名簿の名前", func(t *testing.T) {
		view := certificateView()
		view.LearnerName = ""
		msg, err := NewCertificateMessage(learner, view, "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(msg.Text, "Alice さん"))
	})
}

// fakeSES は送信要求を記録する
type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	ctx := testContext()
	msg, err := NewCertificateMessage(model.Learner{Name: "Alice", Email: "alice@example.com"}, certificateView(), "https://learn.example.com/certificates")
	require.NoError(t, err)

	t.Run("正常系: テキストとHTMLとタグを送る", func(t *testing.T) {
		client := &fakeSES{}
		m := newSESMailerWithClient(client, config.SESConfig{From: "noreply@example.com", ConfigurationSet: "course-progress"})

		require.NoError(t, m.Send(ctx, msg))
		require.Len(t, client.inputs, 1)
		in := client.inputs[0]
		assert.Equal(t, "noreply@example.com", aws.ToString(in.FromEmailAddress))
		assert.Equal(t, []string{"alice@example.com"}, in.Destination.ToAddresses)
		assert.Equal(t, "course-progress", aws.ToString(in.ConfigurationSetName))
		assert.Equal(t, msg.Subject, aws.ToString(in.Content.Simple.Subject.Data))
		assert.Equal(t, msg.Text, aws.ToString(in.Content.Simple.Body.Text.Data))
		require.NotNil(t, in.Content.Simple.Body.Html)
		assert.Equal(t, msg.HTML, aws.ToString(in.Content.Simple.Body.Html.Data))
		require.Len(t, in.EmailTags, 2)
		assert.Equal(t, "category", aws.ToString(in.EmailTags[0].Name))
		assert.Equal(t, "certificate_unlocked", aws.ToString(in.EmailTags[0].Value))
		assert.Equal(t, "course_id", aws.ToString(in.EmailTags[1].Name))
		assert.Equal(t, "2", aws.ToString(in.EmailTags[1].Value))
	})

	t.Run("正常系: HTMLも設定セットもなければ省く", func(t *testing.T) {
		client := &fakeSES{}
		m := newSESMailerWithClient(client, config.SESConfig{From: "noreply@example.com"})

		require.NoError(t, m.Send(ctx, model.MailMessage{To: "bob@example.com", Subject: "s", Text: "b"}))
		in := client.inputs[0]
		assert.Nil(t, in.Content.Simple.Body.Html)
		assert.Nil(t, in.ConfigurationSetName)
		assert.Empty(t, in.EmailTags)
	})

	t.Run("異常系: 送信エラーを返す", func(t *testing.T) {
		sendErr := errors.New("throttled")
		m := newSESMailerWithClient(&fakeSES{err: sendErr}, config.SESConfig{From: "noreply@example.com"})

		err := m.Send(ctx, msg)
		require.Error(t, err)
		assert.ErrorIs(t, err, sendErr)
	})
}

// CertificateNotifierTestSuite は Mailer をモックにして通知内容を検証する
type CertificateNotifierTestSuite struct {
	suite.Suite

	ctx        context.Context
	mockMailer *servicemocks.Mailer
	notifier   CertificateNotifier
	view       model.CertificateView
}

func (s *CertificateNotifierTestSuite) SetupTest() {
	s.ctx = testContext()
	s.mockMailer = new(servicemocks.Mailer)
	s.notifier = NewCertificateNotifier(s.mockMailer, "https://learn.example.com/certificates")
	s.view = certificateView()
}

func TestCertificateNotifier(t *testing.T) {
	suite.Run(t, new(CertificateNotifierTestSuite))
}

func (s *CertificateNotifierTestSuite) TestCertificateUnlocked() {
	testCases := []struct {
		name       string
		learner    model.Learner
		setupMocks func()
		wantErr    bool
	}{
		{
			name:    "正常系: 受講者に送る",
			learner: model.Learner{UserID: uuid.New(), Name: "Alice", Email: "alice@example.com"},
			setupMocks: func() {
				s.mockMailer.On("Send", mock.Anything, mock.MatchedBy(func(msg model.MailMessage) bool {
					return msg.To == "alice@example.com" &&
						strings.Contains(msg.Subject, "Go入門") &&
						strings.Contains(msg.Text, "2024-05-13") &&
						strings.Contains(msg.HTML, "81.67") &&
						msg.Tags["course_id"] == "2"
				})).Return(nil).Once()
			},
		},
		{
			name:       "正常系: メールアドレスがなければ送らない",
			learner:    model.Learner{UserID: uuid.New(), Name: "Bob"},
			setupMocks: func() {},
		},
		{
			name:    "異常系: 送信エラーを返す",
			learner: model.Learner{UserID: uuid.New(), Name: "Alice", Email: "alice@example.com"},
			setupMocks: func() {
				s.mockMailer.On("Send", mock.Anything, mock.Anything).
					Return(errors.New("smtp unavailable")).Once()
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMocks()

			err := s.notifier.CertificateUnlocked(s.ctx, tc.learner, s.view)
			if tc.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
			}
			s.mockMailer.AssertExpectations(s.T())
		})
	}
}

func (s *CertificateNotifierTestSuite) TestLogMailer() {
	s.NoError((&LogMailer{}).Send(s.ctx, model.MailMessage{To: "a@example.com", Subject: "s", Text: "b"}))
}
