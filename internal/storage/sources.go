package storage

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"
)

// FeedSource 参与核查的 RSS/Atom 订阅源
type FeedSource struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"size:512;uniqueIndex" json:"url"`
	Name      string    `gorm:"size:128" json:"name"`
	Enabled   bool      `gorm:"index" json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// FactCheckSite 事实核查站点，按域名做站内搜索
type FactCheckSite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Domain    string    `gorm:"size:255;uniqueIndex" json:"domain"`
	CreatedAt time.Time `json:"createdAt"`
}

// ---------- 订阅源 ----------

// EnsureFeedSources 表为空时写入默认订阅源；已有数据（包括用户删改过的）不再覆盖
func (s *Store) EnsureFeedSources(urls []string) error {
	var n int64
	if err := s.DB.Model(&FeedSource{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, u := range urls {
		if _, err := s.UpsertFeedSource(u, "", true); err != nil {
			return err
		}
	}
	return nil
}

// UpsertFeedSource 添加订阅源；已存在时更新名称与启用状态
func (s *Store) UpsertFeedSource(rawURL, name string, enabled bool) (*FeedSource, error) {
	u := NormalizeFeedURL(rawURL)
	if u == "" {
		return nil, ErrInvalidSource
	}

	src := &FeedSource{URL: u, Name: strings.TrimSpace(name), Enabled: enabled, CreatedAt: time.Now()}
	if err := s.DB.Where("url = ?", u).FirstOrCreate(src).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{"enabled": enabled}
	if name = strings.TrimSpace(name); name != "" {
		updates["name"] = name
	}
	if err := s.DB.Model(src).Updates(updates).Error; err != nil {
		return nil, err
	}
	src.Enabled = enabled
	if name != "" {
		src.Name = name
	}
	return src, nil
}

// RemoveFeedSource 删除订阅源及其快照
func (s *Store) RemoveFeedSource(rawURL string) error {
	u := NormalizeFeedURL(rawURL)
	if u == "" {
		return ErrInvalidSource
	}
	res := s.DB.Where("url = ?", u).Delete(&FeedSource{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if err := s.DB.Where("url = ?", u).Delete(&FeedSnapshot{}).Error; err != nil {
		log.Printf("storage: delete snapshot %s error: %v", u, err)
	}
	return nil
}

// ListFeedSources 返回全部订阅源（按添加顺序）
func (s *Store) ListFeedSources() ([]FeedSource, error) {
	var list []FeedSource
	err := s.DB.Order("id ASC").Find(&list).Error
	return list, err
}

// ListFeedURLs 返回启用中的订阅源地址，供核查与预热使用
func (s *Store) ListFeedURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.DB.WithContext(ctx).Model(&FeedSource{}).
		Where("enabled = ?", true).
		Order("id ASC").
		Pluck("url", &urls).Error
	return urls, err
}

// ---------- 核查站点 ----------

// EnsureFactCheckSites 表为空时写入默认核查站点
func (s *Store) EnsureFactCheckSites(domains []string) error {
	var n int64
	if err := s.DB.Model(&FactCheckSite{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, d := range domains {
		if _, err := s.AddFactCheckSite(d); err != nil {
			return err
		}
	}
	return nil
}

// AddFactCheckSite 添加核查站点（已存在则忽略）
func (s *Store) AddFactCheckSite(domain string) (*FactCheckSite, error) {
	d := NormalizeSite(domain)
	if d == "" {
		return nil, ErrInvalidSource
	}
	site := &FactCheckSite{Domain: d, CreatedAt: time.Now()}
	if err := s.DB.Where("domain = ?", d).FirstOrCreate(site).Error; err != nil {
		return nil, err
	}
	return site, nil
}

// RemoveFactCheckSite 移除核查站点
func (s *Store) RemoveFactCheckSite(domain string) error {
	d := NormalizeSite(domain)
	if d == "" {
		return ErrInvalidSource
	}
	res := s.DB.Where("domain = ?", d).Delete(&FactCheckSite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFactCheckSites 返回全部核查站点（按添加顺序）
func (s *Store) ListFactCheckSites() ([]FactCheckSite, error) {
	var list []FactCheckSite
	err := s.DB.Order("id ASC").Find(&list).Error
	return list, err
}

// ListFactCheckDomains 只返回站点列表（域名，可带栏目路径）
func (s *Store) ListFactCheckDomains(ctx context.Context) ([]string, error) {
	var domains []string
	err := s.DB.WithContext(ctx).Model(&FactCheckSite{}).
		Order("id ASC").
		Pluck("domain", &domains).Error
	return domains, err
}

// NormalizeFeedURL 只接受带主机名的 http/https 地址，非法时返回空串
func NormalizeFeedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}

// NormalizeSite 规范核查站点：小写，去掉协议、端口、查询串与末尾斜杠。
// 路径保留，用于把站内搜索限定在栏目内（如 thequint.com/fact-check）。
func NormalizeSite(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimRight(d, "/")

	host, path := d, ""
	if i := strings.Index(d, "/"); i >= 0 {
		host, path = d[:i], d[i:]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	if !validHost(host) || strings.Contains(path, "//") {
		return ""
	}
	for _, c := range path {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && !strings.ContainsRune("-._~/", c) {
			return ""
		}
	}
	return host + path
}

func validHost(h string) bool {
	if h == "" || !strings.Contains(h, ".") || strings.HasPrefix(h, ".") || strings.HasSuffix(h, ".") {
		return false
	}
	for _, c := range h {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}
