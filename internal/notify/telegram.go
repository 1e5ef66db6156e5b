// Package notify delivers digests to a Telegram channel.
package notify

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// TelegramOptions configure a TelegramSender.
type TelegramOptions struct {
	AppID       int
	AppHash     string
	BotToken    string
	Channel     string // public username, with or without "@"
	SessionFile string
}

// TelegramSender posts text messages as a bot over MTProto.
type TelegramSender struct {
	opts TelegramOptions
}

func NewTelegramSender(opts TelegramOptions) (*TelegramSender, error) {
	if opts.AppID == 0 || opts.AppHash == "" || opts.BotToken == "" || opts.Channel == "" {
		return nil, errors.New("telegram: app id, app hash, bot token and channel are required")
	}
	opts.Channel = strings.TrimPrefix(opts.Channel, "@")
	return &TelegramSender{opts: opts}, nil
}

// Send connects, logs in as the bot, resolves the channel and posts text.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	tgOpts := telegram.Options{}
	if s.opts.SessionFile != "" {
		tgOpts.SessionStorage = &telegram.FileSessionStorage{Path: s.opts.SessionFile}
	}
	client := telegram.NewClient(s.opts.AppID, s.opts.AppHash, tgOpts)

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("telegram: auth status: %w", err)
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, s.opts.BotToken); err != nil {
				return fmt.Errorf("telegram: bot login: %w", err)
			}
		}

		api := tg.NewClient(client)
		resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: s.opts.Channel})
		if err != nil {
			return fmt.Errorf("telegram: resolve %s: %w", s.opts.Channel, err)
		}
		peer, err := inputPeer(resolved)
		if err != nil {
			return err
		}

		_, err = api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
			Peer:     peer,
			Message:  text,
			RandomID: randomID(),
		})
		if err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
		log.Info().Str("channel", s.opts.Channel).Int("chars", len(text)).Msg("telegram: message sent")
		return nil
	})
}

func inputPeer(resolved *tg.ContactsResolvedPeer) (tg.InputPeerClass, error) {
	for _, chat := range resolved.GetChats() {
		switch c := chat.(type) {
		case *tg.Channel:
			return &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}, nil
		case *tg.Chat:
			return &tg.InputPeerChat{ChatID: c.ID}, nil
		}
	}
	for _, user := range resolved.GetUsers() {
		if u, ok := user.(*tg.User); ok {
			return &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}, nil
		}
	}
	return nil, errors.New("telegram: resolved username is not a channel, chat or user")
}

func randomID() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// FormatDigest renders one "title - date - time" line per event. It returns
// "" when there is nothing to report.
func FormatDigest(events []model.CalendarEvent) string {
	var sb strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&sb, "%s - %s - %s\n", ev.Title, ev.ScheduledDate, ev.ScheduledTime)
	}
	return sb.String()
}
