// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package bugtool collects the state of a running server into a tar.gz
// archive.
package bugtool

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path"
	"time"

	gopssignal "github.com/google/gops/signal"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/server"
)

const fetchTimeout = 5 * time.Second

// archive writes files under a common directory of a tar stream.
type archive struct {
	tw     *tar.Writer
	prefix string
	log    *MultiLog
}

func (a *archive) addBytes(name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     path.Join(a.prefix, name),
		Size:     int64(len(data)),
		Mode:     0o644,
		ModTime:  time.Now(),
	}
	if err := a.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header of %s: %w", name, err)
	}
	_, err := a.tw.Write(data)
	return err
}

func (a *archive) addFile(src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = path.Join(a.prefix, name)
	if err := a.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header of %s: %w", name, err)
	}
	// the file may still grow, stop at the size in the header
	_, err = io.CopyN(a.tw, f, hdr.Size)
	return err
}

type collector struct {
	name string
	run  func(ctx context.Context, a *archive, info *InitInfo) error
}

var collectors = []collector{
	{"init info", collectInitInfo},
	{"log file", collectLogFile},
	{"metrics", collectMetrics},
	{"health", collectHealth},
	{"gops", collectGops},
}

// Bugtool writes the archive to outFname. serverAddr and gops override the
// saved init info when set.
func Bugtool(ctx context.Context, outFname string, serverAddr string, gops string) error {
	info, err := LoadInitInfo()
	if err != nil {
		if serverAddr == "" {
			return fmt.Errorf("failed to load init info, is the server running? %w", err)
		}
		info = &InitInfo{}
	}
	if serverAddr != "" {
		info.ServerAddr = serverAddr
	}
	if gops != "" {
		info.GopsPath = gops
	}
	return doBugtool(ctx, info, outFname)
}

// doBugtool runs every collector. Collector failures are logged, to the
// command output and to a log file inside the archive, but don't fail the
// run.
func doBugtool(ctx context.Context, info *InitInfo, outFname string) (err error) {
	var logBuff bytes.Buffer
	archiveLog := logrus.New()
	archiveLog.SetOutput(&logBuff)
	archiveLog.SetLevel(logrus.InfoLevel)
	log := NewMultiLog(logger.GetLogger(), archiveLog)

	out, err := os.Create(outFname)
	if err != nil {
		return fmt.Errorf("failed to create bugtool archive: %w", err)
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	gz := gzip.NewWriter(out)
	a := &archive{
		tw:     tar.NewWriter(gz),
		prefix: "monitoring-poc-bugtool-" + time.Now().Format("20060102150405"),
		log:    log,
	}
	for _, c := range collectors {
		if err := c.run(ctx, a, info); err != nil {
			log.WithField("collector", c.name).WithError(err).Warn("Failed to collect")
		}
	}
	log.WithField("file", outFname).Info("Bugtool archive written")

	err = a.addBytes("monitoring-poc-bugtool.log", logBuff.Bytes())
	return multierr.Combine(err, a.tw.Close(), gz.Close())
}

func collectInitInfo(_ context.Context, a *archive, info *InitInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return a.addBytes("monitoring-poc-info.json", data)
}

func collectLogFile(_ context.Context, a *archive, info *InitInfo) error {
	if info.LogFile == "" {
		a.log.Info("No log file configured")
		return nil
	}
	if err := a.addFile(info.LogFile, "monitoring-poc.log"); err != nil {
		return err
	}
	a.log.WithField("file", info.LogFile).Info("Log file added")
	return nil
}

func fetch(ctx context.Context, addr string, urlPath string) ([]byte, error) {
	client, base, err := server.NewClient(addr, fetchTimeout)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+urlPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s%s: unexpected status %s", base, urlPath, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// collectMetrics scrapes the main server, and the dedicated metrics server
// when there is one.
func collectMetrics(ctx context.Context, a *archive, info *InitInfo) error {
	targets := map[string]string{
		"metrics":        info.ServerAddr,
		"metrics-server": info.MetricsAddr,
	}
	var errs error
	for _, name := range []string{"metrics", "metrics-server"} {
		addr := targets[name]
		if addr == "" {
			continue
		}
		body, err := fetch(ctx, addr, "/metrics")
		if err == nil {
			err = a.addBytes(name, body)
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

func collectHealth(ctx context.Context, a *archive, info *InitInfo) error {
	if info.ServerAddr == "" {
		return nil
	}
	body, err := fetch(ctx, info.ServerAddr, "/health/detailed")
	if err != nil {
		return err
	}
	return a.addBytes("health.json", body)
}

// heapProfile asks the gops agent for a heap profile.
func heapProfile(ctx context.Context, addr string) ([]byte, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(fetchTimeout))
	if _, err := conn.Write([]byte{gopssignal.HeapProfile}); err != nil {
		return nil, err
	}
	return io.ReadAll(conn)
}

func collectGops(ctx context.Context, a *archive, info *InitInfo) error {
	if info.GopsAddr == "" {
		a.log.Info("Skipping gops dump info, the server runs without a gops agent")
		return nil
	}
	log := a.log.WithField("gops-address", info.GopsAddr)

	var errs error
	if heap, err := heapProfile(ctx, info.GopsAddr); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("heap profile: %w", err))
	} else {
		errs = multierr.Append(errs, a.addBytes("gops.pprof-heap", heap))
	}

	if info.GopsPath == "" {
		log.Warn("gops binary not found, install it or pass --gops")
		return errs
	}
	for _, sub := range []string{"stack", "stats", "memstats"} {
		cmdCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		out, err := exec.CommandContext(cmdCtx, info.GopsPath, sub, info.GopsAddr).CombinedOutput()
		cancel()
		if err != nil {
			log.WithField("command", sub).WithError(err).Warn("gops command failed")
		}
		// the output explains the failure, keep it
		errs = multierr.Append(errs, a.addBytes("gops."+sub, out))
	}
	return errs
}
