package framebuffer

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
)

func debugLog(format string, args ...interface{}) {
	if os.Getenv("IDB_DEBUG") == "1" {
		fmt.Printf("[DEBUG:FB] "+format+"\n", args...)
	}
}

// Consumer binds a framebuffer service to its registration endpoint and
// drains attached head services in the background. A single reader per
// connection writes into the surface backing store, so disconnecting
// services never orphan competing readers.
type Consumer struct {
	service  *Service
	endpoint *Endpoint

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewConsumer creates a consumer over an allocated service and
// registered endpoint.
func NewConsumer(service *Service, endpoint *Endpoint) *Consumer {
	return &Consumer{
		service:  service,
		endpoint: endpoint,
		done:     make(chan struct{}),
	}
}

// Start begins accepting head-service connections in the background.
func (c *Consumer) Start() error {
	if c.endpoint.ServiceName() == "" {
		return fmt.Errorf("cannot start consumer on an unregistered endpoint")
	}

	c.wg.Add(1)
	go c.acceptLoop()
	debugLog("Framebuffer consumer listening for %s", c.service.UDID())
	return nil
}

func (c *Consumer) acceptLoop() {
	defer c.wg.Done()

	for {
		conn, err := c.endpoint.Accept()
		if err != nil {
			select {
			case <-c.done:
			default:
				debugLog("Accept error: %v", err)
			}
			return
		}

		c.wg.Add(1)
		go c.drain(conn)
	}
}

// drain copies one head service's output into the surface until it
// disconnects.
func (c *Consumer) drain(conn net.Conn) {
	defer c.wg.Done()
	defer conn.Close()

	if _, err := io.Copy(c.service.surface, conn); err != nil {
		debugLog("Surface write error for %s: %v", c.service.UDID(), err)
	}
}

// Stop shuts down the consumer and releases the endpoint and surface.
func (c *Consumer) Stop() {
	c.once.Do(func() {
		close(c.done)
		_ = c.endpoint.Close()
		c.wg.Wait()
		_ = c.service.Close()
	})
}
