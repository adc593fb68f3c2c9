package market

import "sync"

// SubscriberBuffer 是每个订阅通道的缓冲大小。
const SubscriberBuffer = 64

// Publisher 一个轻量事件分发器，订阅者跟不上时丢弃事件。
type Publisher struct {
	mu        sync.RWMutex
	depthSubs []chan Depth
	tradeSubs []chan Trade
}

func NewPublisher() *Publisher {
	return &Publisher{
		depthSubs: make([]chan Depth, 0),
		tradeSubs: make([]chan Trade, 0),
	}
}

func (p *Publisher) SubscribeDepth() <-chan Depth {
	ch := make(chan Depth, SubscriberBuffer)
	p.mu.Lock()
	p.depthSubs = append(p.depthSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) SubscribeTrade() <-chan Trade {
	ch := make(chan Trade, SubscriberBuffer)
	p.mu.Lock()
	p.tradeSubs = append(p.tradeSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) PublishDepth(d Depth) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.depthSubs {
		select {
		case ch <- d:
		default:
		}
	}
}

func (p *Publisher) PublishTrade(t Trade) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.tradeSubs {
		select {
		case ch <- t:
		default:
		}
	}
}
