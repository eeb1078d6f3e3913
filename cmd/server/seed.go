package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"interviewiq-go/internal/config"
	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/log"
)

// seedAdmin 在管理员账号不存在时创建它（幂等）。
func seedAdmin(cfg config.AdminConfig, userRepo repository.UserRepository, userService service.UserService) {
	if cfg.Username == "" {
		return
	}
	if _, err := userRepo.FindByUsername(cfg.Username); err == nil {
		return
	}
	user, err := userService.Register(cfg.Username, "", cfg.Password)
	if err != nil {
		if !errors.Is(err, service.ErrUserExists) {
			log.Warnf("seedAdmin: 创建管理员失败: %v", err)
		}
		return
	}
	user.Role = model.RoleAdmin
	if err := userRepo.Update(user); err != nil {
		log.Warnf("seedAdmin: 设置管理员角色失败: %v", err)
		return
	}
	log.Infof("seedAdmin: 已创建管理员账号 '%s'", user.Username)
}

// seedQAPairs 从 JSON 文件导入问答，问题已存在时跳过（幂等）。
func seedQAPairs(path string, userRepo repository.UserRepository, owner string, qaService service.QAService) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Infof("seedQAPairs: 文件 '%s' 不存在或不可用，跳过初始化导入", path)
		return
	}
	var pairs []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.Unmarshal(data, &pairs); err != nil {
		log.Warnf("seedQAPairs: 解析 '%s' 失败: %v", path, err)
		return
	}

	existing, err := qaService.List()
	if err != nil {
		log.Warnf("seedQAPairs: 读取问答库失败: %v", err)
		return
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[strings.ToLower(p.Question)] = struct{}{}
	}

	creator, _ := userRepo.FindByUsername(owner)
	imported := 0
	for _, p := range pairs {
		if _, ok := known[strings.ToLower(strings.TrimSpace(p.Question))]; ok {
			continue
		}
		if _, err := qaService.Create(p.Question, p.Answer, creator); err != nil {
			log.Warnf("seedQAPairs: 导入问答失败: %v", err)
			continue
		}
		imported++
	}
	if imported > 0 {
		log.Infof("seedQAPairs: 已导入 %d 条问答", imported)
	}
}
