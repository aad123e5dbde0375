package auth

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Routes はアクセスゲートが特別扱いするパスです。
type Routes struct {
	Root   string // サイトルート（常に公開）
	Home   string // ホーム一覧（常に公開、ログイン済みのリダイレクト先）
	Login  string // アカウント画面（未ログインのリダイレクト先）
	Signup string // アカウント画面
}

// DefaultRoutes は既定のパス構成を返します。
func DefaultRoutes() Routes {
	return Routes{
		Root:   "/",
		Home:   "/Home/Index",
		Login:  "/Account/Login",
		Signup: "/Account/Signup",
	}
}

// Decision はゲートの判定結果です。RedirectTo が空なら通過です。
type Decision struct {
	RedirectTo string
}

// Allowed は後続のハンドラーへ進めるかを返します。
func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

// Gate はパスとログイン状態からリクエストの通過可否を決めます。
// 状態は持たず、判定は (loggedIn, path) だけで決まります。
type Gate struct {
	routes Routes
	public []glob.Glob
}

// NewGate は Gate を作成します。publicPatterns に一致するパスはルートと同様に常に通過します。
func NewGate(routes Routes, publicPatterns []string) (*Gate, error) {
	g := &Gate{routes: routes}
	for _, pattern := range publicPatterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, oops.Code("AUTH_GATE_PATTERN_INVALID").
				With("pattern", pattern).
				Wrap(err)
		}
		g.public = append(g.public, compiled)
	}
	return g, nil
}

// Routes はゲートのパス構成を返します。
func (g *Gate) Routes() Routes {
	return g.routes
}

// Decide は 1 リクエスト分の判定を行います。
func (g *Gate) Decide(loggedIn bool, path string) Decision {
	if path == g.routes.Root || path == g.routes.Home || g.isPublic(path) {
		return Decision{}
	}

	accountPath := path == g.routes.Login || path == g.routes.Signup
	switch {
	case loggedIn && accountPath:
		return Decision{RedirectTo: g.routes.Home}
	case !loggedIn && !accountPath:
		return Decision{RedirectTo: g.routes.Login}
	default:
		return Decision{}
	}
}

func (g *Gate) isPublic(path string) bool {
	for _, pattern := range g.public {
		if pattern.Match(path) {
			return true
		}
	}
	return false
}
