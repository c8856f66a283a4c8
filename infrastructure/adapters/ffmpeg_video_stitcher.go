package adapters

import (
	"bufio"
	"os"
	"os/exec"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/domain"

	"github.com/google/uuid"
)

type ffmpegVideoStitcher struct {
	logger outbound.LoggerPort
}

func NewFFmpegVideoStitcher(logger outbound.LoggerPort) outbound.ConcatenateVideosPort {
	return &ffmpegVideoStitcher{
		logger: logger,
	}
}

// Concatenate joins the clips with the concat demuxer and stream copy, so
// segment content is never re-encoded. Source clips are left in place; the
// caller owns their lifetime.
func (f *ffmpegVideoStitcher) Concatenate(assets []domain.VideoAsset) (string, error) {
	fileList, err := os.Create("/tmp/" + uuid.NewString() + ".txt")
	if err != nil {
		f.logger.Error(err, "failed to create clip list file")
		return "", err
	}

	defer func(fileList *os.File) {
		err := fileList.Close()
		if err != nil {
			f.logger.Error(err, "failed to close clip list file")
		}
	}(fileList)
	defer func(name string) {
		err := os.Remove(name)
		if err != nil {
			f.logger.Error(err, "failed to remove clip list file")
		}
	}(fileList.Name())

	writer := bufio.NewWriter(fileList)
	for _, asset := range assets {
		if _, err := writer.WriteString("file '" + asset.FileName + "'\n"); err != nil {
			f.logger.Error(err, "failed to write to clip list file")
			return "", err
		}
	}
	if err := writer.Flush(); err != nil {
		f.logger.Error(err, "failed to flush clip list file")
		return "", err
	}

	outputFileName := "/tmp/" + uuid.NewString() + ".mp4"

	cmd := exec.Command("ffmpeg", "-f", "concat", "-safe", "0", "-i", fileList.Name(), "-c", "copy", outputFileName)
	if err := cmd.Run(); err != nil {
		f.logger.Error(err, "failed to concatenate video clips")
		return "", err
	}

	return outputFileName, nil
}
