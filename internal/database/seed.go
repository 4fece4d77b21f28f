package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user if none exists, then fills the portal
// with demo content and a starter block layout when no blocks are
// configured yet. Both steps are skipped on an already seeded database.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedPortal(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled; the admin sets it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@schoolportal.local", string(hash), "Quản trị viên", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@schoolportal.local",
		"password", "admin",
	)
	return nil
}

type seedPost struct {
	title, slug, summary, category string
	featured                       bool
	daysAgo                        int
}

var seedPosts = []seedPost{
	{"Khai giảng năm học mới", "khai-giang-nam-hoc-moi", "Lễ khai giảng được tổ chức trang trọng tại sân trường.", "tin-tuc", true, 1},
	{"Kết quả thi học sinh giỏi cấp huyện", "ket-qua-thi-hoc-sinh-gioi", "Nhà trường đạt 12 giải cá nhân.", "thanh-tich", true, 3},
	{"Thông báo lịch họp phụ huynh", "lich-hop-phu-huynh", "Họp phụ huynh học kỳ I vào sáng Chủ nhật.", "thong-bao", false, 5},
	{"Hội thao chào mừng 20/11", "hoi-thao-20-11", "Các lớp tham gia bóng đá, kéo co, cầu lông.", "tin-tuc", false, 8},
	{"Tập huấn chuyển đổi số cho giáo viên", "tap-huan-chuyen-doi-so", "Giáo viên được hướng dẫn sử dụng học liệu số.", "tin-tuc", false, 12},
	{"Thông báo nghỉ lễ", "thong-bao-nghi-le", "Học sinh được nghỉ lễ theo quy định.", "thong-bao", false, 20},
}

func seedPortal(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM display_blocks").Scan(&count); err != nil {
		return fmt.Errorf("seed check blocks: %w", err)
	}
	if count > 0 {
		slog.Info("portal content already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	exec := func(what, query string, args ...any) error {
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("seed %s: %w", what, err)
		}
		return nil
	}

	categories := []struct{ name, slug, color string }{
		{"Tin tức", "tin-tuc", "#1e3a8a"},
		{"Thông báo", "thong-bao", "#b91c1c"},
		{"Thành tích", "thanh-tich", "#15803d"},
	}
	for i, c := range categories {
		if err := exec("post category", `
			INSERT INTO post_categories (name, slug, color, sort_order) VALUES ($1, $2, $3, $4)
		`, c.name, c.slug, c.color, i+1); err != nil {
			return err
		}
	}

	now := time.Now()
	for _, p := range seedPosts {
		if err := exec("post", `
			INSERT INTO posts (title, slug, summary, content, author, category, status, is_featured, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'published', $7, $8)
		`, p.title, p.slug, p.summary, "## "+p.title+"\n\n"+p.summary, "Ban biên tập",
			p.category, p.featured, now.AddDate(0, 0, -p.daysAgo)); err != nil {
			return err
		}
	}

	var docCat string
	if err := tx.QueryRow(`
		INSERT INTO document_categories (name, slug, description, sort_order)
		VALUES ('Văn bản chỉ đạo', 'van-ban-chi-dao', 'Văn bản của cấp trên', 1)
		RETURNING id
	`).Scan(&docCat); err != nil {
		return fmt.Errorf("seed document category: %w", err)
	}
	if err := exec("document", `
		INSERT INTO documents (number, title, issued_at, category_id, file_ref)
		VALUES ('01/KH-THCS', 'Kế hoạch năm học', $1, $2, 'documents/ke-hoach-nam-hoc.pdf')
	`, now.AddDate(0, -1, 0), docCat); err != nil {
		return err
	}

	if err := exec("video", `
		INSERT INTO videos (title, youtube_url, sort_order)
		VALUES ('Giới thiệu nhà trường', 'https://www.youtube.com/watch?v=dQw4w9WgXcQ', 1)
	`); err != nil {
		return err
	}

	if err := exec("intro", `
		INSERT INTO intro_articles (title, slug, content, sort_order)
		VALUES ('Lịch sử nhà trường', 'lich-su', '## Lịch sử\n\nTrường được thành lập năm 1995.', 1)
	`); err != nil {
		return err
	}

	if err := exec("staff", `
		INSERT INTO staff_members (name, title, department, sort_order)
		VALUES ('Nguyễn Văn An', 'Hiệu trưởng', 'Ban giám hiệu', 1)
	`); err != nil {
		return err
	}

	blocks := []struct {
		name, position, typ, target, source string
		order, count                        int
	}{
		{"Tin nổi bật", "main", "hero", "home", "featured", 1, 3},
		{"Tin tức", "main", "grid", "all", "tin-tuc", 2, 4},
		{"Thông báo", "sidebar", "list", "all", "thong-bao", 1, 5},
		{"Văn bản", "sidebar", "docs", "all", "", 2, 5},
		{"VIDEO HOẠT ĐỘNG", "sidebar", "video", "all", "", 3, 5},
		{"Thống kê truy cập", "sidebar", "stats", "all", "", 4, 0},
	}
	for _, b := range blocks {
		source := b.source
		if source == "" {
			source = "all"
		}
		if err := exec("block", `
			INSERT INTO display_blocks (name, position, type, sort_order, item_count, target_page, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, b.name, b.position, b.typ, b.order, b.count, b.target, source); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo portal content", "blocks", len(blocks), "posts", len(seedPosts))
	return nil
}
