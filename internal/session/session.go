// Package session は学習者側のセッション状態 (認証済みか、リダイレクト中か) を保持する
package session

import (
	"sync"
)

// State はトラッカーに注入するセッション状態。
// 同期クライアントのコールバックは別ゴルーチンで動くためロックで保護する
type State struct {
	mu               sync.Mutex
	token            string
	authenticated    bool
	redirectInFlight bool
	onRedirect       func()
}

// New はトークン付きのセッションを作る。onRedirect はログイン画面への遷移を行う (nil 可)
func New(token string, onRedirect func()) *State {
	return &State{
		token:         token,
		authenticated: token != "",
		onRedirect:    onRedirect,
	}
}

func (s *State) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *State) RedirectInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirectInFlight
}

// Login は新しいトークンで認証状態に戻す
func (s *State) Login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.authenticated = token != ""
	s.redirectInFlight = false
}

// Unauthorized は 401 を受けたときに呼ぶ。
// リダイレクトは最初の1回だけ発生させ、発生させた場合 true を返す
func (s *State) Unauthorized() bool {
	s.mu.Lock()
	s.authenticated = false
	s.token = ""
	if s.redirectInFlight {
		s.mu.Unlock()
		return false
	}
	s.redirectInFlight = true
	hook := s.onRedirect
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Logout はトークンを破棄する。リダイレクト中フラグも解除する
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.authenticated = false
	s.redirectInFlight = false
}
