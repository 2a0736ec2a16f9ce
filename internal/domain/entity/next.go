package entity

import "github.com/LouYuanbo1/vizcapture/internal/domain/model"

type NextStatus int

const (
	NextExhausted NextStatus = iota
	NextFound
)

// Next 目录游标前进的结果: 要么找到下一个任务,要么目录已遍历完
type Next struct {
	Status NextStatus
	Job    model.CaptureJob
}

func Found(job model.CaptureJob) Next {
	return Next{Status: NextFound, Job: job}
}

func Exhausted() Next {
	return Next{Status: NextExhausted}
}

func (n Next) IsFound() bool {
	return n.Status == NextFound
}
