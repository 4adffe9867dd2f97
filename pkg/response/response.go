package response

import (
	"net/http"
	"time"

	"ac-server/internal/model"

	"github.com/gin-gonic/gin"
)

const timeLayout = "2006-01-02 15:04:05"

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`            // 状态码：0表示成功，其他表示错误
	Message string      `json:"message"`         // 响应消息
	Data    interface{} `json:"data,omitempty"`  // 响应数据
	Error   string      `json:"error,omitempty"` // 错误详情（仅在开发环境显示）
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带错误详情的错误响应
func ErrorWithDetails(c *gin.Context, code int, message string, err error) {
	response := Response{
		Code:    code,
		Message: message,
	}

	// 在开发环境下显示错误详情
	if gin.Mode() == gin.DebugMode && err != nil {
		response.Error = err.Error()
	}

	c.JSON(http.StatusOK, response)
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Error(c, 401, message)
}

// Forbidden 403错误
func Forbidden(c *gin.Context, message string) {
	Error(c, 403, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	Error(c, 404, message)
}

// Conflict 409错误
func Conflict(c *gin.Context, message string) {
	Error(c, 409, message)
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	Error(c, 500, message)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// AdminInfo 管理员信息（隐藏密码哈希）
type AdminInfo struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"created_at"`
}

// FilterAdminInfo 过滤管理员信息
func FilterAdminInfo(a model.Admin) AdminInfo {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	return AdminInfo{
		Username:    a.Username,
		Permissions: perms,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

// UserInfo 用户信息（隐藏密码哈希和验证密钥）
type UserInfo struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Verified    bool   `json:"verified"`
	GameUUID    string `json:"game_uuid,omitempty"`
	QQNickname  string `json:"qq_nickname,omitempty"`
	QQBound     bool   `json:"qq_bound"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// FilterUserInfo 过滤用户信息，隐藏敏感字段
func FilterUserInfo(u model.User) UserInfo {
	info := UserInfo{
		Username:    u.Username,
		Email:       u.Email,
		Verified:    u.Verified,
		GameUUID:    u.GameUUID,
		LastLoginAt: formatTimePtr(u.LastLoginAt),
		CreatedAt:   formatTime(u.CreatedAt),
	}
	if u.QQ != nil {
		info.QQBound = true
		info.QQNickname = u.QQ.Nickname
	}
	return info
}

// ProfileResponse 当前用户资料，验证密钥只返回给本人用于绑定游戏角色
type ProfileResponse struct {
	UserInfo
	VerificationKey string `json:"verification_key,omitempty"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	Admin       *AdminInfo `json:"admin,omitempty"`
	User        *UserInfo  `json:"user,omitempty"`
}

// AnnouncementInfo 公告信息，管理端附带已读人数
type AnnouncementInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	SendTime  string `json:"send_time,omitempty"`
	Sent      bool   `json:"sent"`
	Priority  int    `json:"priority"`
	Author    string `json:"author"`
	ReadCount int    `json:"read_count"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// FilterAnnouncementInfo 转换公告
func FilterAnnouncementInfo(a model.Announcement) AnnouncementInfo {
	return AnnouncementInfo{
		ID:        a.ID,
		Name:      a.Name,
		Title:     a.Title,
		Content:   a.Content,
		SendTime:  formatTimePtr(a.SendTime),
		Sent:      a.Sent,
		Priority:  a.Priority,
		Author:    a.Author,
		ReadCount: countTrue(a.ReadStatus),
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

// FilterAnnouncements 批量转换公告
func FilterAnnouncements(list []model.Announcement) []AnnouncementInfo {
	out := make([]AnnouncementInfo, 0, len(list))
	for _, a := range list {
		out = append(out, FilterAnnouncementInfo(a))
	}
	return out
}

// CompensationInfo 补偿信息，管理端附带领取人数
type CompensationInfo struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Items       []model.RewardItem `json:"items"`
	Author      string             `json:"author"`
	ClaimCount  int                `json:"claim_count"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

// FilterCompensationInfo 转换补偿
func FilterCompensationInfo(c model.Compensation) CompensationInfo {
	items := c.Items
	if items == nil {
		items = []model.RewardItem{}
	}
	return CompensationInfo{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Items:       items,
		Author:      c.Author,
		ClaimCount:  countTrue(c.ClaimStatus),
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

// FilterCompensations 批量转换补偿
func FilterCompensations(list []model.Compensation) []CompensationInfo {
	out := make([]CompensationInfo, 0, len(list))
	for _, c := range list {
		out = append(out, FilterCompensationInfo(c))
	}
	return out
}

func countTrue(flags map[string]bool) int {
	n := 0
	for _, v := range flags {
		if v {
			n++
		}
	}
	return n
}
