package services

import (
	"context"
	"fmt"
	"github.com/eatmoreapple/openwechat"
	"time"
)

// WeChatSender 通过微信群发送价格消息（热登录，首次需要扫码）
type WeChatSender struct {
	groupName   string
	storagePath string
	timeout     time.Duration
}

func NewWeChatSender(groupName, storagePath string, timeout time.Duration) *WeChatSender {
	return &WeChatSender{groupName: groupName, storagePath: storagePath, timeout: timeout}
}

func (s *WeChatSender) Name() string { return "wechat" }

// newWeChatBot binds the bot's login polling and sync loop to ctx.
func newWeChatBot(ctx context.Context) *openwechat.Bot {
	bot := openwechat.DefaultBot(openwechat.Desktop, openwechat.WithContextOption(ctx))
	bot.UUIDCallback = openwechat.PrintlnQrcodeUrl
	return bot
}

func (s *WeChatSender) Send(ctx context.Context, content string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bot := newWeChatBot(ctx)
	defer bot.Exit()

	reloadStorage := openwechat.NewFileHotReloadStorage(s.storagePath)
	defer reloadStorage.Close()

	if err := bot.HotLogin(reloadStorage, openwechat.NewRetryLoginOption()); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wechat login: %w", ctxErr)
		}
		return fmt.Errorf("wechat login: %w", err)
	}
	self, err := bot.GetCurrentUser()
	if err != nil {
		return fmt.Errorf("wechat current user: %w", err)
	}
	groups, err := self.Groups()
	if err != nil {
		return fmt.Errorf("wechat groups: %w", err)
	}
	target := groups.SearchByNickName(1, s.groupName)
	if target.Count() == 0 {
		return fmt.Errorf("wechat: group %q not found", s.groupName)
	}
	if _, err := target.First().SendText(content); err != nil {
		return fmt.Errorf("wechat send: %w", err)
	}
	return nil
}
