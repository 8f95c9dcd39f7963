package client

import (
	"context"
	"strings"
	"sync"

	"sfu-globe/pkg/feed"

	"go.uber.org/zap"
)

// ClubDirectory 俱乐部列表的本地副本
type ClubDirectory struct {
	api *Client

	mu    sync.RWMutex
	clubs []Club
}

func NewClubDirectory(api *Client) *ClubDirectory {
	return &ClubDirectory{api: api}
}

// Load 拉取全部俱乐部并替换本地列表
func (d *ClubDirectory) Load(ctx context.Context) error {
	clubs, err := d.api.ListClubs(ctx, "")
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.clubs = clubs
	d.mu.Unlock()
	return nil
}

func (d *ClubDirectory) Clubs() []Club {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Club(nil), d.clubs...)
}

// Search 在已加载的列表中按名称或简介做不区分大小写的子串匹配，term 为空返回全部
func (d *ClubDirectory) Search(term string) []Club {
	term = strings.ToLower(strings.TrimSpace(term))
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Club, 0, len(d.clubs))
	for _, club := range d.clubs {
		if term == "" ||
			strings.Contains(strings.ToLower(club.Name), term) ||
			strings.Contains(strings.ToLower(club.Description), term) {
			out = append(out, club)
		}
	}
	return out
}

// Watch 订阅 clubs 主题并就地更新本地行，直到 ctx 结束或连接断开
func (d *ClubDirectory) Watch(ctx context.Context, rt *Realtime) error {
	sub, err := rt.Subscribe(ctx, feed.ClubsTopic())
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return ErrRealtimeClosed
			}
			d.apply(ev)
		}
	}
}

func (d *ClubDirectory) apply(ev *feed.ChangeEvent) {
	var club Club
	if err := ev.DecodeRow(&club); err != nil {
		d.api.log.Warn("Failed to decode club event", zap.Error(err))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.clubs {
		if d.clubs[i].ID != club.ID {
			continue
		}
		if ev.Type == feed.Delete {
			d.clubs = append(d.clubs[:i], d.clubs[i+1:]...)
		} else {
			d.clubs[i] = club
		}
		return
	}
	if ev.Type != feed.Delete {
		d.clubs = append(d.clubs, club)
	}
}
