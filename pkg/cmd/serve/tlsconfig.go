package serve

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/f1-telemetry-lab/log"
)

// certs serves the key pair from certFile/keyFile and reloads it on change
type certs struct {
	ctx      context.Context
	certFile string
	keyFile  string
	log      *log.Logger
	mu       sync.RWMutex
	cert     *tls.Certificate
}

// newTLSConfig returns nil if the key pair could not be loaded
func newTLSConfig(ctx context.Context, certFile, keyFile string) *tls.Config {
	c := &certs{
		ctx:      ctx,
		certFile: certFile,
		keyFile:  keyFile,
		log:      log.GetFromContext(ctx).Named("serve.certs"),
	}
	if err := c.loadCert(); err != nil {
		c.log.Error("could not load TLS key pair", log.ErrorField(err))
		return nil
	}
	go c.watchAndReloadCerts()
	return &tls.Config{
		GetCertificate: c.getCertificate,
		MinVersion:     tls.VersionTLS13,
	}
}

func (c *certs) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert, nil
}

func (c *certs) watchAndReloadCerts() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()
	for _, f := range []string{c.certFile, c.keyFile} {
		if err := watcher.Add(f); err != nil {
			c.log.Error("could not watch file", log.String("file", f), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-c.ctx.Done():
			c.log.Debug("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Chmod) {

				c.log.Info("cert file changed, reloading cert",
					log.String("file", event.Name))
				if err := c.loadCert(); err != nil {
					// keep serving the previous key pair
					c.log.Error("could not reload TLS key pair", log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

func (c *certs) loadCert() error {
	c.log.Info("Loading cert",
		log.String("key", c.keyFile),
		log.String("cert", c.certFile))
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
	return nil
}
