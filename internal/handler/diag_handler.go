package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// DiagReport は診断エンドポイントのレスポンス。
type DiagReport struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	ConnectionStatus string   `json:"connection_status"`
	Tables           []string `json:"tables"`
	GoogleClientID   string   `json:"google_client_id"`
}

// DiagHandler は稼働確認用のHTTPハンドラー。
// データベースが利用できない状態でもエラーを返さず、状態を報告する。
type DiagHandler struct {
	db *sql.DB
}

// NewDiagHandler はDiagHandlerを生成する。dbはnil許容。
func NewDiagHandler(db *sql.DB) *DiagHandler {
	return &DiagHandler{db: db}
}

// Root はルートの疎通確認レスポンスを返す。
// GET /
func (h *DiagHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Hello from the backend!"})
}

// Hello はAPIの疎通確認レスポンスを返す。
// GET /api/hello
func (h *DiagHandler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Hello from the backend API!"})
}

// Test はバックエンドとデータベースの状態を報告する。
// GET /test
//
// データベース未設定・接続不能でもステータス200で状態を返す。
func (h *DiagHandler) Test(w http.ResponseWriter, r *http.Request) {
	report := DiagReport{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		ConnectionStatus: "Not Connected",
		Tables:           []string{},
	}

	if h.db != nil {
		report.Database = "✅ Available"
		report.ConnectionStatus = h.probeDatabase(r, &report)
	}

	report.DatabaseURL = envPresence("DATABASE_URL")
	report.GoogleClientID = envPresence("GOOGLE_CLIENT_ID")

	writeJSON(w, report)
}

// probeDatabase は接続確認とテーブル一覧の取得を行い、接続状態の文字列を返す。
func (h *DiagHandler) probeDatabase(r *http.Request, report *DiagReport) string {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		report.Database = truncateStatus(fmt.Sprintf("⚠️ Available but Error: %s", err.Error()))
		return "Not Connected"
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename LIMIT 10`)
	if err != nil {
		report.Database = truncateStatus(fmt.Sprintf("⚠️ Connected but Error: %s", err.Error()))
		return "Connected"
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			report.Database = truncateStatus(fmt.Sprintf("⚠️ Connected but Error: %s", err.Error()))
			return "Connected"
		}
		report.Tables = append(report.Tables, name)
	}

	report.Database = "✅ Connected & Working"
	return "Connected"
}

// truncateStatus はエラー詳細を含むステータス文字列を50文字に丸める。
func truncateStatus(s string) string {
	const max = 50
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// envPresence は環境変数の設定有無を表す文字列を返す。値自体は含めない。
func envPresence(key string) string {
	if os.Getenv(key) != "" {
		return "✅ Set"
	}
	return "❌ Not Set"
}

// writeJSON はJSONレスポンスを200で書き込む。
func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
