//go:build !unix

package sysparams

// openMax 非 unix 平台没有 RLIMIT_NOFILE，按 Windows CRT 默认上限处理
func openMax() (uint64, error) {
	return 8192, nil
}
