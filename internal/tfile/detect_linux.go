//go:build linux

package tfile

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Superblock magic numbers from statfs(2) for the filesystems music
// libraries tend to live on: local disks, SD cards and USB sticks, and
// network shares.
var fsMagic = map[int64]string{
	0xEF53:     "ext4",
	0x9123683E: "btrfs",
	0x58465342: "xfs",
	0x2fc12fc1: "zfs",
	0x62656572: "f2fs",
	0x4d44:     "vfat",
	0x2011BAB0: "exfat",
	0x5346544e: "ntfs",
	0x65735546: "fuse",
	0x6969:     "nfs",
	0xFF534D42: "cifs",
	0xFE534D42: "smb2",
	0x01021994: "tmpfs",
	0x794c7630: "overlayfs",
}

func detectFilesystem(path string) (string, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return "", err
	}

	magic := int64(stat.Type) // #nosec G115 -- width differs per arch
	if fs, ok := fsMagic[magic]; ok {
		return fs, nil
	}
	return fmt.Sprintf("unknown (magic=0x%x)", magic), nil
}
