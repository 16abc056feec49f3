package shm_test

import (
	"fmt"

	"github.com/srediag/shmbridge/pkg/shm"
)

func ExampleManager() {
	acc := shm.NewMemoryAccessor()
	producer, err := shm.NewManager(acc)
	if err != nil {
		fmt.Println("failed to create manager:", err)
		return
	}
	defer producer.Close()
	consumer, err := shm.NewManager(acc)
	if err != nil {
		fmt.Println("failed to create manager:", err)
		return
	}
	defer consumer.Close()

	name, ok := producer.PutString("hello world")
	if !ok {
		fmt.Println("failed to put payload")
		return
	}
	out, ok := consumer.GetString(name, 6, 5)
	fmt.Println(out, ok)
	// Output: world true
}

func ExampleIsFresh() {
	region, err := shm.NewMemoryAccessor().Create("example", shm.HeaderSize+4)
	if err != nil {
		fmt.Println("failed to create region:", err)
		return
	}
	defer region.Close()

	fresh, _ := shm.IsFresh(region)
	fmt.Println(fresh)
	_ = shm.SetDirtyBit(region)
	fresh, _ = shm.IsFresh(region)
	fmt.Println(fresh, region.Tell())
	// Output:
	// true
	// false 0
}
